package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sunfish-shogi/bufseekio"
	"github.com/urfave/cli/v3"
	"ktkr.us/pkg/fmtutil"

	"github.com/uldza/mediainfo"
	"github.com/uldza/mediainfo/internal/logging"
	"github.com/uldza/mediainfo/internal/report"
	"github.com/uldza/mediainfo/mp4"
)

const usage = "Usage: mp4info <filename>"

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "mp4info",
		Usage:     "print the movie and track headers of an MP4 file",
		ArgsUsage: "<filename>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "summary", Usage: "print a one line summary"},
			&cli.BoolFlag{Name: "boxes", Usage: "dump the box tree"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "log-position", Usage: "annotate log lines with file:line"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	err := logging.Setup(cmd.ErrWriter, logging.Config{
		Level:    cmd.String("log-level"),
		Position: cmd.Bool("log-position"),
	})
	if err != nil {
		return err
	}

	if cmd.NArg() != 1 {
		fmt.Fprintln(cmd.Writer, usage)
		return nil
	}
	name := cmd.Args().First()

	switch {
	case cmd.Bool("summary"):
		return summary(cmd.Writer, name)
	case cmd.Bool("boxes"):
		return boxes(cmd.Writer, name)
	}

	f, err := mp4.Open(name)
	if err != nil {
		return err
	}
	return report.Write(cmd.Writer, f)
}

func summary(w io.Writer, name string) error {
	fp, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fp.Close()

	meta, format, err := mediainfo.DecodeMeta(bufseekio.NewReadSeeker(fp, 64*1024, 4))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s), %s, %d tracks\n", format, meta.Brand(), fmtutil.HMS(meta.Duration()), meta.NumTracks())
	return nil
}

func boxes(w io.Writer, name string) error {
	fp, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fp.Close()

	return mp4.Dump(w, bufseekio.NewReadSeeker(fp, 64*1024, 4))
}

func main() {
	if err := newCommand(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		logging.Error().Err(err).Msg("mp4info")
		os.Exit(1)
	}
}
