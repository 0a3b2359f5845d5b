package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "spice",
		Short: "🌶️  Statement import for your portfolio ledger",
		Long: `spice imports bank, card, and brokerage statements into a local ledger.

Statements are matched to extractors, reviewed entry by entry, and only then
written. Security master data can be kept in sync with an online source.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/spice/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("database", "", "ledger database path (default: $HOME/.local/share/spice/ledger.db)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(securitiesCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, cancel := context.WithCancel(context.Background())
	ctx = handler.HandleInterrupts(ctx)

	err := rootCmd.ExecuteContext(withInterruptHandler(ctx, handler))
	cancel()

	if err != nil {
		var userErr *common.UserError
		switch {
		case errors.As(err, &userErr):
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		case handler.WasInterrupted():
			// message already shown
		default:
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/spice", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SPICE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		common.LogDebug("Loaded config", common.Fields{"path": used})
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spice %s\n", version)
		},
	}
}
