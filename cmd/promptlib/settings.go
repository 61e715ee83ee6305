package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"promptlib/internal/kvstore"
	"promptlib/internal/logging"
	"promptlib/internal/models"
	"promptlib/internal/siteconfig"
)

const loadTimeout = 30 * time.Second

func newSettingsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change the site configuration",
	}
	cmd.AddCommand(
		newSettingsGetCmd(v),
		newSettingsSetCmd(v),
		newSettingsResetCmd(v),
		newSettingsSyncCmd(v),
		newSettingsInviteCmd(v),
	)
	return cmd
}

func newSettingsGetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the effective configuration (defaults merged with stored values)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			return writeConfig(cmd.OutOrStdout(), sess.store.Config(), v.GetString(keyOutput))
		},
	}
}

func newSettingsSetCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [patch]",
		Short: "Merge a partial configuration into the stored one",
		Long: `Merge a partial configuration into the stored one. The patch is a JSON or
YAML object given inline or with --file ("-" reads stdin). Nested objects are
merged field by field; fields left out keep their current values.

  promptlib settings set '{"announcement":{"enabled":true}}'
  promptlib settings set --file patch.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			raw, err := readPatchInput(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			p, err := parsePatch(raw)
			if err != nil {
				return err
			}

			sess, err := openSession(cmd.Context(), v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			// A patch applied to defaults would overwrite whatever is stored.
			if err := sess.backend.lastLoadErr(); err != nil {
				return fmt.Errorf("not saving, current settings could not be read: %w", err)
			}

			sess.store.Update(p)
			if err := sess.flush(cmd.Context()); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Settings saved (%s)", sess.backend.Mode())
			return writeConfig(cmd.OutOrStdout(), sess.store.Config(), v.GetString(keyOutput))
		},
	}
	cmd.Flags().StringP("file", "f", "", "read the patch from a JSON or YAML file")
	return cmd
}

func newSettingsResetCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("reset overwrites the stored configuration; pass --yes to confirm")
			}

			sess, err := openSession(cmd.Context(), v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			sess.store.Reset()
			if err := sess.flush(cmd.Context()); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Settings reset to defaults (%s)", sess.backend.Mode())
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "confirm the reset")
	return cmd
}

func newSettingsSyncCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refetch the configuration from the server and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			if sess.backend.Mode() != models.StorageD1 {
				printWarning(cmd.ErrOrStderr(), "sync only applies to d1 mode, showing local settings")
			} else {
				printStep(cmd.ErrOrStderr(), "Syncing from %s", v.GetString(keyServer))
				sess.store.SyncFromServer(cmd.Context())
				if err := sess.flush(cmd.Context()); err != nil {
					return err
				}
			}
			return writeConfig(cmd.OutOrStdout(), sess.store.Config(), v.GetString(keyOutput))
		},
	}
}

func newSettingsInviteCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check-invite <code>",
		Short: "Check an invite code against the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ic := sess.store.Config().InviteCode
			if !ic.Enabled {
				printWarning(cmd.ErrOrStderr(), "Invite codes are disabled, registration is open")
				return nil
			}
			if !ic.Accepts(args[0]) {
				return fmt.Errorf("invite code rejected")
			}
			printSuccess(cmd.ErrOrStderr(), "Invite code accepted")
			return nil
		},
	}
}

// session is one CLI invocation's handle on the configuration store.
type session struct {
	store   *siteconfig.Store
	backend *checkedBackend
	closers []io.Closer
}

// openSession builds the backend selected by the flags, starts a Store and
// waits for the initial load.
func openSession(ctx context.Context, v *viper.Viper, stderr io.Writer) (*session, error) {
	mode, err := models.ParseStorageMode(v.GetString(keyMode))
	if err != nil {
		return nil, err
	}

	logger, _, err := logging.New(logging.Options{Level: slog.LevelWarn, Out: stderr})
	if err != nil {
		return nil, err
	}

	sess := &session{}
	var inner siteconfig.Backend
	switch mode {
	case models.StorageD1:
		opts := []siteconfig.RemoteOption{siteconfig.WithToken(v.GetString(keyToken))}
		if otp := v.GetString(keyOTP); otp != "" {
			opts = append(opts, siteconfig.WithOTP(otp))
		}
		inner = siteconfig.NewRemoteBackend(v.GetString(keyServer), opts...)
	case models.StorageLocal:
		kv, err := kvstore.Open(ctx, v.GetString(keyDataDir))
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		sess.closers = append(sess.closers, kv)
		inner = siteconfig.NewLocalBackend(kv)
	}

	sess.backend = &checkedBackend{Backend: inner}
	sess.store = siteconfig.New(sess.backend, siteconfig.WithLogger(logger))
	sess.store.Start(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	if err := sess.store.WaitLoaded(waitCtx); err != nil {
		sess.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return sess, nil
}

// flush waits for pending saves and reports the last save failure.
func (s *session) flush(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return err
	}
	if err := s.backend.lastSaveErr(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// Close stops the store before releasing the backend's resources.
func (s *session) Close() error {
	err := s.store.Close()
	for _, c := range s.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// checkedBackend remembers the outcome of the most recent load and save.
// The Store only logs those failures; the CLI needs them as an exit status.
type checkedBackend struct {
	siteconfig.Backend

	mu      sync.Mutex
	loadErr error
	saveErr error
}

func (b *checkedBackend) Load(ctx context.Context) (json.RawMessage, error) {
	raw, err := b.Backend.Load(ctx)
	b.mu.Lock()
	b.loadErr = err
	b.mu.Unlock()
	return raw, err
}

func (b *checkedBackend) lastLoadErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadErr
}

func (b *checkedBackend) Save(ctx context.Context, cfg models.SiteConfig) error {
	err := b.Backend.Save(ctx, cfg)
	b.mu.Lock()
	b.saveErr = err
	b.mu.Unlock()
	return err
}

func (b *checkedBackend) lastSaveErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saveErr
}

// readPatchInput returns the patch text from the argument, a file, or
// stdin when file is "-".
func readPatchInput(stdin io.Reader, args []string, file string) ([]byte, error) {
	switch {
	case len(args) == 1 && file != "":
		return nil, fmt.Errorf("give the patch inline or with --file, not both")
	case len(args) == 1:
		return []byte(args[0]), nil
	case file == "-":
		return io.ReadAll(io.LimitReader(stdin, 1<<20))
	case file != "":
		return os.ReadFile(file)
	default:
		return nil, fmt.Errorf("no patch given")
	}
}

// parsePatch accepts JSON or YAML (JSON is valid YAML) and converts it into
// a Patch. The top level must be a mapping.
func parsePatch(raw []byte) (siteconfig.Patch, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return siteconfig.Patch{}, fmt.Errorf("parse patch: %w", err)
	}
	if doc == nil {
		return siteconfig.Patch{}, fmt.Errorf("parse patch: expected an object")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return siteconfig.Patch{}, fmt.Errorf("parse patch: %w", err)
	}
	return siteconfig.DecodePatch(data)
}
