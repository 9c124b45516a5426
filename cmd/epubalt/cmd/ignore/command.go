// Package ignore provides the ignore command that edits the exclusion set.
package ignore

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/internal/appcontext"
)

// NewCommand creates the ignore command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "ignore [TEXT]",
		Short: "Toggle an alt text that --update-missing treats as missing",
		Long: `Ignore adds TEXT to the exclusion set, or removes it if already present.
Images whose alt text matches an excluded text are regenerated by
"run --update-missing", which is useful for placeholders such as "image"
or "figure" that a publisher left behind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Store()
			if err != nil {
				return err
			}
			ex, err := s.LoadExclusions()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if list || len(args) == 0 {
				for _, text := range ex.Texts() {
					fmt.Fprintf(w, "%q\n", text)
				}
				return nil
			}

			if ex.Toggle(args[0]) {
				fmt.Fprintf(w, "Added %q to the exclusion set\n", args[0])
			} else {
				fmt.Fprintf(w, "Removed %q from the exclusion set\n", args[0])
			}
			return s.SaveExclusions(ex)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the exclusion set")
	return cmd
}
