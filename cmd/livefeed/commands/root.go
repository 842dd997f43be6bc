package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Alp4ka/livepager/internal/config"
	"github.com/Alp4ka/livepager/internal/postdb"
)

// app is the state shared by the commands of one invocation.
type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *postdb.Store
}

// NewRootCommand creates the livefeed command tree.
func NewRootCommand() *cobra.Command {
	var (
		configFile string
		a          = new(app)
	)

	cmd := &cobra.Command{
		Use:           "livefeed",
		Short:         "Browse and follow a feed of posts",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := config.NewLogger(cfg.Logger, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			store, err := postdb.Open(cfg.DB.Driver, cfg.DB.DSN, postdb.WithLogger(log))
			if err != nil {
				return err
			}

			if err = store.Migrate(cmd.Context()); err != nil {
				_ = store.Close()
				return err
			}

			a.cfg, a.log, a.store = cfg, log, store
			log.WithFields(logrus.Fields{"driver": cfg.DB.Driver, "command": cmd.Name()}).Debug("store opened")

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}

			return a.store.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file path")
	flags.String("driver", "", "database driver: sqlite, mysql or postgres")
	flags.String("dsn", "", "database dsn")
	flags.Duration("interval", 0, "poll interval of streaming commands")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "log format: text or json")

	cmd.AddCommand(
		newSeedCommand(a),
		newAddCommand(a),
		newDeleteCommand(a),
		newGetCommand(a),
		newListCommand(a),
		newPageCommand(a),
		newWatchCommand(a),
		newTailCommand(a),
	)

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	if err := json.NewEncoder(cmd.OutOrStdout()).Encode(v); err != nil {
		return fmt.Errorf("cannot write output: %w", err)
	}

	return nil
}
