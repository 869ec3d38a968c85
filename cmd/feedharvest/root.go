package main

import (
	"fmt"
	"os"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	appcfg   *config.Config
	log      zerolog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "feedharvest",
	Short: "Harvest the latest items from infinite-scroll profile activity feeds",
	Long: `feedharvest opens a profile's activity feed in an authenticated browser,
scrolls until it has seen enough numbered items (or the feed stops growing)
and writes the gathered post markup to LatestPosts_<outcome>_<n>.html.

Authentication is not handled here: point --config at a browser profile
(rod.user_data_dir) that is already logged in, or at a running browser
(rod.control_url).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appcfg, err = config.LoadFile(configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			appcfg.Logging.Level = logLevel
		}
		log, closeLog, err = logger.New(appcfg.Logging.Level, appcfg.Logging.File)
		return err
	},
}

func Execute() {
	err := rootCmd.Execute()
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close log file:", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(harvestCmd, extractCmd, runsCmd)
}
