package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"promptlib/internal/config"
)

// Keys shared by the client-side subcommands. Each is settable as a flag
// or as PROMPTLIB_<KEY> in the environment.
const (
	keyMode    = "mode"
	keyServer  = "server"
	keyToken   = "token"
	keyOTP     = "otp"
	keyDataDir = "data-dir"
	keyOutput  = "output"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PROMPTLIB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:     "promptlib",
		Short:   "Prompt library server and site configuration tool",
		Version: version,
		Long: `promptlib serves the prompt library API and manages the admin-editable
site configuration, either through the admin settings API (d1 mode) or in a
local SQLite store (local mode).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
	}

	pf := root.PersistentFlags()
	pf.String(keyMode, "d1", "storage mode: d1 (remote API) or local")
	pf.String(keyServer, "http://localhost:8080", "base URL of the promptlib API")
	pf.String(keyToken, "", "admin bearer token used for writes")
	pf.String(keyOTP, "", "current TOTP code when the server requires one")
	pf.String(keyDataDir, ".promptlib", "directory of the local store")
	pf.StringP(keyOutput, "o", "json", "output format: json or yaml")
	_ = v.BindPFlags(pf)

	root.AddCommand(
		newServeCmd(),
		newSettingsCmd(v),
		newAdminCmd(),
	)
	return root
}
