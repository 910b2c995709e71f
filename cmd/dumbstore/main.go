package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dumbstore/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	noColor bool
	compact bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts := &globalOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		printError(stderr, err, opts.compact)
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "dumbstore",
		Short: "Server-rendered state that the client picks up on boot",
		Long: `dumbstore holds a flat key/value store on the server, embeds it into
rendered pages as a hydration script, and lets the client rebuild the
same store from it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
			} else {
				errors.EnableColors()
			}
		},
	}

	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&opts.compact, "compact", false, "Print errors on a single line")

	root.AddCommand(
		serveCmd(),
		hydrateCmd(),
		errorsCmd(),
		versionCmd(),
	)
	return root
}

// printError writes err to w, as a single line when compact is set.
func printError(w io.Writer, err error, compact bool) {
	if !compact {
		errors.PrintError(w, err)
		return
	}
	fmt.Fprintln(w, errors.FromError(err, errors.CategoryCLI).FormatCompact())
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	mark := "✓"
	if errors.ColorsEnabled() {
		mark = "\033[32m✓\033[0m"
	}
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
