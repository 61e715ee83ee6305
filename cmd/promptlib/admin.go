package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Generate admin credentials for the server",
	}
	cmd.AddCommand(newHashTokenCmd(), newTOTPSetupCmd(), newOTPCmd())
	return cmd
}

func newHashTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Hash an admin token for ADMIN_TOKEN_HASH (generates one if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, _ := cmd.Flags().GetInt("cost")

			token := ""
			if len(args) == 1 {
				token = strings.TrimSpace(args[0])
			}
			generated := token == ""
			if generated {
				token = rand.Text()
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
			if err != nil {
				return fmt.Errorf("hashing token: %w", err)
			}

			out := cmd.OutOrStdout()
			if generated {
				fmt.Fprintf(out, "ADMIN_TOKEN=%s\n", token)
			}
			// Single quotes stop .env loaders from expanding the $ segments.
			fmt.Fprintf(out, "ADMIN_TOKEN_HASH='%s'\n", hash)
			if generated {
				printWarning(cmd.ErrOrStderr(), "Store ADMIN_TOKEN somewhere safe; only the hash goes on the server")
			}
			return nil
		},
	}
	cmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func newTOTPSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totp-setup",
		Short: "Generate a TOTP secret for ADMIN_TOTP_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, _ := cmd.Flags().GetString("issuer")
			account, _ := cmd.Flags().GetString("account")
			qrPath, _ := cmd.Flags().GetString("qr")

			key, err := totp.Generate(totp.GenerateOpts{
				Issuer:      issuer,
				AccountName: account,
			})
			if err != nil {
				return fmt.Errorf("generating TOTP secret: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_TOTP_SECRET=%s\n", key.Secret())

			stderr := cmd.ErrOrStderr()
			printStatus(stderr, "URL", "%s", key.URL())
			if qrPath != "" {
				png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
				if err != nil {
					return fmt.Errorf("generating QR code: %w", err)
				}
				if err := os.WriteFile(qrPath, png, 0o600); err != nil {
					return fmt.Errorf("writing QR code: %w", err)
				}
				printSuccess(stderr, "QR code written to %s", qrPath)
			}
			return nil
		},
	}
	cmd.Flags().String("issuer", "PromptLib", "issuer shown in the authenticator app")
	cmd.Flags().String("account", "admin", "account name shown in the authenticator app")
	cmd.Flags().String("qr", "", "write a PNG QR code to this path")
	return cmd
}

func newOTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Print the current one-time code for a TOTP secret",
		Long: `Print the current one-time code for a TOTP secret, for scripted writes:

  promptlib settings set --otp "$(promptlib admin otp)" '{"homeTitle":"…"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				secret = os.Getenv("ADMIN_TOTP_SECRET")
			}
			secret = strings.ToUpper(strings.TrimSpace(secret))
			if secret == "" {
				return fmt.Errorf("no secret given (use --secret or ADMIN_TOTP_SECRET)")
			}

			code, err := totp.GenerateCode(secret, time.Now())
			if err != nil {
				return fmt.Errorf("generating code: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().String("secret", "", "base32 TOTP secret (defaults to ADMIN_TOTP_SECRET)")
	return cmd
}
