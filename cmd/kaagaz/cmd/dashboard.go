package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rdholakia/kaagaz/dashboard"
	"github.com/rdholakia/kaagaz/journal"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the web dashboard over a session database",
	Long: `Serve a local web dashboard with the session summary, trades and
portfolio snapshots from a SQLite journal.

Example:
  kaagaz dashboard --db kaagaz.db --addr :8080`,
	RunE: runDashboard,
}

var (
	dashboardDB   string
	dashboardAddr string
)

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringVar(&dashboardDB, "db", "kaagaz.db", "journal database path")
	dashboardCmd.Flags().StringVar(&dashboardAddr, "addr", ":8080", "listen address")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	log := logger()

	j, err := journal.NewSQLite(dashboardDB)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return dashboard.New(j, log).ListenAndServe(ctx, dashboardAddr)
}
