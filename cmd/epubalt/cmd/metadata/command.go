// Package metadata provides the metadata command.
package metadata

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/internal/output"
	"github.com/agentstation/epubalt/pkg/epub"
)

// NewCommand creates the metadata command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata BOOK.epub",
		Short: "Show the title, creator and other package metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			pkg, err := epub.Open(args[0])
			if err != nil {
				return err
			}
			return output.FormatMetadata(cmd.OutOrStdout(), pkg.Metadata(), output.DetectFormat(string(format)))
		},
	}
}
