package main

import (
	"encoding/json"

	"github.com/boddenberg/lead-console-go/internal/service"

	"github.com/spf13/cobra"
)

var dryRun bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute admin totals from leads",
	Long: `reconcile recomputes total_leads, total_closings and total_revenue for
every admin from the leads table and writes the ones that drifted. The report
is printed as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		writer, err := a.totalsWriter(ctx)
		if err != nil {
			return err
		}

		report, err := service.NewReconciler(a.supabase, a.supabase, writer, a.metrics, a.logger).Run(ctx, dryRun)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report drift without writing")
}
