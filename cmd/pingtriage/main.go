package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pingtriage/cmd/pingtriage/commands"
	"git.home.luguber.info/inful/pingtriage/internal/config"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the selected command and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli commands.CLI
	global := &commands.Global{Ctx: ctx, Stdin: stdin, Stdout: stdout, Stderr: stderr}

	parser, err := kong.New(&cli,
		kong.Name("pingtriage"),
		kong.Description("Local state store for ping triage: ingestion, lifecycle, threads and sync bookkeeping."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String(config.CurrentVersion)},
		kong.Writers(stdout, stderr),
		kong.Bind(global),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return exitCode(global, &cli, err, stderr)
	}
	if err := kctx.Run(global, &cli); err != nil {
		return exitCode(global, &cli, err, stderr)
	}
	return 0
}

// exitCode reports err on stderr and maps it to a process exit code.
func exitCode(g *commands.Global, cli *commands.CLI, err error, stderr io.Writer) int {
	var exitErr *commands.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	var parseErr *kong.ParseError
	if stderrors.As(err, &parseErr) && !isClassified(err) {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return errors.NewCLIErrorAdapter(cli.Verbose, g.Logger).WithOutput(stderr).Report(err)
}

func isClassified(err error) bool {
	_, ok := errors.AsClassified(err)
	return ok
}
