// Package configcmd provides the config command for the saved user settings.
package configcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/store"
)

// NewCommand creates the config command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var email, provider string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the saved email and provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Store()
			if err != nil {
				return err
			}
			cfg, _, err := s.LoadUserConfig()
			if err != nil {
				return err
			}

			changed := false
			if cmd.Flags().Changed("email") {
				cfg.Email = strings.TrimSpace(email)
				changed = true
			}
			if cmd.Flags().Changed("provider") {
				p, err := ParseProvider(provider)
				if err != nil {
					return err
				}
				cfg.Provider = p
				changed = true
			}
			if changed {
				if err := s.SaveUserConfig(cfg); err != nil {
					return err
				}
				app.Logger().Info().Str("path", s.ConfigPath()).Msg("Saved user configuration")
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "email:    %s\n", valueOr(cfg.Email, "(not set)"))
			fmt.Fprintf(w, "provider: %s\n", valueOr(strings.ToLower(cfg.Provider), "api"))
			fmt.Fprintf(w, "data:     %s\n", s.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address the license is registered to")
	cmd.Flags().StringVar(&provider, "provider", "", "default description provider: api or local")
	return cmd
}

// ParseProvider maps a command-line provider name to its stored form.
func ParseProvider(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "api", "gemini", "remote":
		return store.ProviderAPI, nil
	case "local":
		return store.ProviderLocal, nil
	default:
		return "", errors.NewValidationError("provider", name, "must be api or local")
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
