package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/config"
	"github.com/Sergeybob123/callboard/internal/logging"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
}

func newRootCmd(version string) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "callboard",
		Short: "Callboard - MMO guild bulletin board",
		Long: `Callboard is a bulletin board for an MMO community.

Authors publish posts in game categories, other players respond, and post
authors review and accept the responses they receive.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ./callboard.yaml)")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(migrateCmd(flags))
	root.AddCommand(userCmd(flags))
	root.AddCommand(configCmd(flags))
	root.AddCommand(statusCmd(flags))
	root.AddCommand(versionCmd(version))

	return root
}

// setup loads configuration and builds the logger
func (f *globalFlags) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
