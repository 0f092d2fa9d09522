package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect captured leads",
	Long:  "Commands for listing stored leads and migrating the lead store.",
}

func openLeadStore(ctx context.Context) (store.LeadStore, error) {
	if err := cfg.Validate("leads"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("leads: store driver is none")
	}
	return st, nil
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored leads, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		if status != "" && !model.RelayStatus(status).Valid() {
			return eris.Errorf("leads list: unknown status %q", status)
		}

		st, err := openLeadStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListLeads(ctx, store.LeadFilter{Status: model.RelayStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if format != "table" {
			return writeStructured(os.Stdout, format, leads)
		}
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}
		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// -- leads migrate --

var leadsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the lead store schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openLeadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Open already migrated; run again so the command is explicit.
		if err := st.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "leads migrate")
		}
		zap.L().Info("leads: store migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	leadsListCmd.Flags().String("status", "", "filter by relay status: pending, sent, failed or skipped")
	leadsListCmd.Flags().Int("limit", 50, "maximum leads to show")
	leadsListCmd.Flags().String("format", "table", "output format: table, json or yaml")

	leadsCmd.AddCommand(leadsListCmd, leadsMigrateCmd)
	rootCmd.AddCommand(leadsCmd)
}
