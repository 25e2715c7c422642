package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/benvon/tasklist/internal/config"
	"github.com/benvon/tasklist/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewOIDCCmd creates the oidc command
func NewOIDCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oidc",
		Short: "Check the identity provider configuration",
	}
	cmd.AddCommand(newOIDCTestCmd())
	return cmd
}

func newOIDCTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test OIDC configuration",
		Long:  "Test the configured OIDC issuer by fetching its discovery document and signing keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.OIDCIssuer == "" {
				return fmt.Errorf("OIDC_ISSUER is not set")
			}

			out := cmd.OutOrStdout()
			client := &http.Client{Timeout: 10 * time.Second}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			discoveryURL := cfg.OIDCIssuer + "/.well-known/openid-configuration"
			fmt.Fprintf(out, "Testing discovery endpoint: %s\n", discoveryURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to reach discovery endpoint: %w", err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
				}
			}()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("discovery endpoint returned status: %d", resp.StatusCode)
			}
			fmt.Fprintln(out, "✓ Discovery endpoint is accessible")

			fmt.Fprintf(out, "\nTesting JWKS endpoint: %s\n", cfg.OIDCJWKSURL)
			keys, err := oidc.NewJWKSManager(client).GetJWKS(ctx, cfg.OIDCJWKSURL)
			if err != nil {
				return fmt.Errorf("failed to fetch signing keys: %w", err)
			}
			fmt.Fprintf(out, "✓ JWKS endpoint returned %d key(s)\n", keys.Len())

			login := oidc.NewClient(oidc.ClientConfig{
				Issuer:       cfg.OIDCIssuer,
				ClientID:     cfg.OIDCClientID,
				ClientSecret: cfg.OIDCClientSecret,
				RedirectURI:  cfg.OIDCRedirectURI,
			}).LoginConfig()
			fmt.Fprintf(out, "\nAuthorization endpoint: %s\n", login.AuthorizationEndpoint)
			fmt.Fprintf(out, "Token endpoint: %s\n", login.TokenEndpoint)
			fmt.Fprintf(out, "Client ID: %s\n", login.ClientID)
			return nil
		},
	}
}
