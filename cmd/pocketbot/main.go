package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pocketbot/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "pocketbot",
	Short: "LINE bot that keeps a personal income and expense ledger",
	PersistentPreRun: func(*cobra.Command, []string) {
		cli.LoadEnvFile()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().String("classifier-config", "", "classifier override file (YAML or JSON)")
	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("LOG_FORMAT", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("CLASSIFIER_CONFIG_FILE", rootCmd.PersistentFlags().Lookup("classifier-config"))

	rootCmd.AddCommand(serveCmd(), classifyCmd(), migrateCmd(), seedUserCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
