package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/domain"
)

var (
	dataDir   string
	redisAddr string
	self      string
	verbose   bool

	client *app.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:   "courier",
		Short: "Encrypted peer-to-peer messaging CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if self == "" {
				return fmt.Errorf("--self address required")
			}
			if dataDir == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				dataDir = filepath.Join(dir, ".courier")
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				With().Timestamp().Logger().Level(level)

			var err error
			client, err = app.Open(cmd.Context(), app.Config{
				Self:      domain.Address(self),
				DataDir:   dataDir,
				RedisAddr: redisAddr,
				Logger:    log,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if client == nil {
				return nil
			}
			return client.Close()
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "state dir (default ~/.courier)")
	root.PersistentFlags().StringVar(&redisAddr, "redis", "", "redis address for the live transport (e.g. 127.0.0.1:6379)")
	root.PersistentFlags().StringVar(&self, "self", "", "your address")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(initCmd(), sendCmd(), historyCmd(), groupCmd(), unreadCmd(), backupCmd())
	return root.Execute()
}
