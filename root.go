package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/cargo-dispatch/pkg/config"
	logx "github.com/tanpawarit/cargo-dispatch/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cargo-dispatch",
	Short: "Conversational cargo shipment assistant",
	Long:  `cargo-dispatch answers chat messages about cargo shipments: quotes, bookings and status, backed by a language model.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env")
		configx.SetEnvFile(envFile)

		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*logCfg)
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "path to .env file")
}
