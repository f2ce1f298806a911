package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpipe/internal/publish"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize YouTube uploads and save the OAuth token",
		Long: "Auth prints the Google consent URL. Paste the authorization code back\n" +
			"(or pass it with --code) to store a refreshable token in youtube.token_file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			oauthCfg, err := publish.OAuthConfig(cfg.YouTube.ClientSecretsFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			code = strings.TrimSpace(code)
			if code == "" {
				fmt.Fprintln(out, "Open this URL, approve access and paste the code below:")
				fmt.Fprintln(out, publish.AuthURL(oauthCfg))
				fmt.Fprint(out, "Code: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read authorization code: %w", err)
				}
				code = strings.TrimSpace(line)
			}
			if code == "" {
				return errors.New("authorization code is required")
			}
			if err := publish.Exchange(cmd.Context(), oauthCfg, code, cfg.YouTube.TokenFile); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token saved to %s\n", cfg.YouTube.TokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	return cmd
}
