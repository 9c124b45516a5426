// Package images provides the images command that lists the remembered
// state of a book.
package images

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/internal/output"
)

// NewCommand creates the images command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "images BOOK.epub",
		Short: "List the remembered image state of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			s, err := app.Store()
			if err != nil {
				return err
			}
			path, err := s.CachePath(args[0])
			if err != nil {
				return err
			}
			idx, err := s.LoadCache(path)
			if err != nil {
				return err
			}
			if idx.Len() == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "No remembered state for %s\n", args[0])
				return err
			}
			return output.FormatImages(cmd.OutOrStdout(), idx, output.DetectFormat(string(format)))
		},
	}
}
