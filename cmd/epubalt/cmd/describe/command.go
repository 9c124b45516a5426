// Package describe provides the describe command for a single image file.
package describe

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/pkg/describer"
	"github.com/agentstation/epubalt/pkg/errors"
)

// NewCommand creates the describe command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		provider string
		verify   string
		check    bool
	)
	cmd := &cobra.Command{
		Use:   "describe IMAGE",
		Short: "Generate alt text for one image file",
		Long: `Describe sends a single image file to the description provider and
prints the suggested alt text. With --verify the model checks the given
text instead; with --check and no text it is asked whether the image is
decorative.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := Request(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("verify") || check {
				req.Kind = describer.Verify
				req.ExistingAlt = &verify
			}

			d, err := app.Describer(provider)
			if err != nil {
				return err
			}
			text, err := d.Describe(cmd.Context(), req)
			if err != nil {
				return errors.NewDescribeError(d.Name(), req.Name, err)
			}

			text = describer.NormalizeBlank(text)
			if text == "" && req.Kind == describer.Create {
				text = `""`
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "description provider: api or local")
	cmd.Flags().StringVar(&verify, "verify", "", "existing alt text to check instead of generating")
	cmd.Flags().BoolVar(&check, "check", false, "verify with an empty alt text")
	return cmd
}

// Request reads an image file into a create request.
func Request(path string) (describer.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return describer.Request{}, errors.WrapIO("read", path, err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return describer.Request{
		Name:      filepath.Base(path),
		Image:     data,
		MediaType: mediaType,
		Kind:      describer.Create,
	}, nil
}
