// Command genv8constants emits the v8dbg constants stored in a static
// archive (usually libv8_base.a) as a C header for the V8 ustack helper.
//
//	genv8constants <output.h> <libv8_base.a>
//
// The archive is read through "objdump -z -D". Each v8dbg symbol is a small
// data object; its value is rebuilt from the octets objdump prints under the
// symbol's label.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"genv8constants/internal/disasm"
	"genv8constants/internal/extract"
	"genv8constants/internal/header"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// UsageError is returned for a malformed command line. No work has been
// done when it is reported.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

type options struct {
	objdump string
	listing string
	prefix  string
	guard   string
	verbose bool
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.objdump, "objdump", disasm.DefaultPath(), "disassembler binary (defaults to $OBJDUMP)")
	fs.StringVar(&o.listing, "listing", "", "read an existing objdump -z -D listing instead of running the disassembler (- for stdin)")
	fs.StringVar(&o.prefix, "prefix", extract.DefaultPrefix, "name prefix of the symbols to export")
	fs.StringVar(&o.guard, "guard", header.DefaultGuard, "include guard macro of the generated header")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log every constant found")
}

func newCommand(log *zerolog.Logger) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "genv8constants [flags] <output_header> <archive>",
		Short: "Emit v8dbg constants stored in a static archive as a C header",
		Long: `genv8constants disassembles a static archive with objdump and writes
every symbol whose name starts with the debug prefix (v8dbg) as a
#define in the output header. The V8 ustack helper uses these
values to walk JavaScript frames without V8's private headers.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &UsageError{Err: fmt.Errorf("expected 2 arguments, got %d", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := log.Level(zerolog.InfoLevel)
			if opts.verbose {
				l = log.Level(zerolog.DebugLevel)
			}
			return generate(cmd.Context(), &opts, args[0], args[1], cmd.InOrStdin(), l)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
	opts.register(cmd.Flags())
	return cmd
}

// openListing returns the disassembly of archive, either from a running
// disassembler or from a saved listing.
func openListing(ctx context.Context, opts *options, archive string, stdin io.Reader, log zerolog.Logger) (io.ReadCloser, error) {
	switch opts.listing {
	case "":
		p, err := disasm.Start(ctx, disasm.Config{Path: opts.objdump}, archive, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "-":
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(opts.listing)
	if err != nil {
		return nil, fmt.Errorf("cannot open listing: %w", err)
	}
	return f, nil
}

func generate(ctx context.Context, opts *options, outPath, archive string, stdin io.Reader, log zerolog.Logger) error {
	src, err := openListing(ctx, opts, archive, stdin, log)
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", outPath, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	hw := header.NewWriter(bw, opts.guard)
	x := &extract.Extractor{Prefix: opts.prefix, Log: log}
	n, err := x.Run(src, hw)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := src.Close(); err != nil {
		return err
	}
	if err := hw.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outPath, err)
	}

	log.Info().Int("constants", n).Str("archive", archive).Str("output", outPath).Msg("wrote header")
	return nil
}

func newLogger(w io.Writer) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: noColor}).With().Timestamp().Logger()
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stderr io.Writer) int {
	log := newLogger(stderr)
	cmd := newCommand(&log)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintf(stderr, "Error: %v\n%s", err, cmd.UsageString())
		return exitUsage
	}
	log.Error().Err(err).Msg("genv8constants failed")
	return exitFailure
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stderr))
}
