package commands

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"certsentry/internal/config"
)

var cfg *config.Config

func Execute() error {
	root := &cobra.Command{
		Use:           "certsentry",
		Short:         "Telegram certificate analyzer with a video download worker",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			initLogger(cfg)
			return nil
		},
	}

	root.AddCommand(botCmd(), workerCmd())
	return root.Execute()
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
