// Package cli implements the typedoc command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenerateOptions are the flags of the generate command. Output and Format
// override the configuration file when set.
type GenerateOptions struct {
	Manifests  []string
	ConfigPath string
	Output     string
	Format     string
	Verbose    bool
}

// NewRootCommand returns the typedoc command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "typedoc",
		Short:         "Generate OpenAPI documents from static class and route manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCommand(), newVersionCommand(version))
	return root
}

// Execute runs the command tree with the process arguments and returns the
// exit code.
func Execute(version string) int {
	root := NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "typedoc:", err)
		return 1
	}
	return 0
}

func newGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an OpenAPI document",
		Example: `  typedoc generate -m app.yaml -m vendor.yaml -c typedoc.yaml -o openapi.json
  typedoc generate -m app.yaml --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerateCommand(cmd, opts)
		},
	}
	bindGenerateFlags(cmd.Flags(), opts)
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func bindGenerateFlags(fs *pflag.FlagSet, opts *GenerateOptions) {
	fs.StringSliceVarP(&opts.Manifests, "manifest", "m", nil, "manifest file (repeatable)")
	fs.StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file")
	fs.StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	fs.StringVar(&opts.Format, "format", "", "output format: json or yaml")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "log resolution details")
}

func runGenerateCommand(cmd *cobra.Command, opts *GenerateOptions) error {
	runner := &Runner{
		Logger: newLogger(cmd.ErrOrStderr(), opts.Verbose),
		Stdout: cmd.OutOrStdout(),
	}
	return runner.Run(cmd.Context(), *opts)
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
