package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/cmd/epubalt/cmd/configcmd"
	"github.com/agentstation/epubalt/cmd/epubalt/cmd/describe"
	"github.com/agentstation/epubalt/cmd/epubalt/cmd/ignore"
	"github.com/agentstation/epubalt/cmd/epubalt/cmd/images"
	"github.com/agentstation/epubalt/cmd/epubalt/cmd/metadata"
	"github.com/agentstation/epubalt/cmd/epubalt/cmd/run"
	"github.com/agentstation/epubalt/cmd/epubalt/cmd/version"
	"github.com/agentstation/epubalt/pkg/logging"
)

// Execute runs the epubalt CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "epubalt",
		Short:   "Review and generate alt text for EPUB images",
		Version: a.version,
		Long: `epubalt reviews the images of an EPUB e-book, asks a vision model for
alt text where it is missing or needs checking, writes an HTML report of
every image, and produces a copy of the book with the accepted text.

Per-image state is remembered between runs, so a book can be reviewed
over several sessions.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.Format, "format", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("epubalt {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)

	a.installLogger()
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *App) registerCommands(rootCmd *cobra.Command) {
	core := []*cobra.Command{
		run.NewCommand(a),
		describe.NewCommand(a),
		images.NewCommand(a),
		metadata.NewCommand(a),
	}
	for _, c := range core {
		c.GroupID = "core"
		rootCmd.AddCommand(c)
	}

	management := []*cobra.Command{
		ignore.NewCommand(a),
		configcmd.NewCommand(a),
	}
	for _, c := range management {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
