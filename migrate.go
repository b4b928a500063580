package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
	configx "github.com/tanpawarit/cargo-dispatch/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the shipments schema",
	Long:  `Creates the shipments table and its index for the postgres and sqlite drivers. Other drivers need no schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storeCfg, err := configx.New[shipmentx.Config]("STORE")
		if err != nil {
			return err
		}
		storeCfg.AutoMigrate = false

		store, err := shipmentx.Open(cmd.Context(), *storeCfg)
		if err != nil {
			return err
		}
		defer store.Close()

		sqlStore, ok := store.(*shipmentx.SQLStore)
		if !ok {
			log.Info().Str("driver", storeCfg.Driver).Msg("driver has no schema to migrate")
			return nil
		}
		if err := sqlStore.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info().Str("driver", storeCfg.Driver).Msg("shipments schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
