package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential pool status",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := setup()

	repo, db, err := openRepo(cfg)
	if err != nil {
		slog.Error("Failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	creds, err := repo.List(ctx)
	if err != nil {
		slog.Error("Failed to list credentials", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLATFORM\tSTATUS\tENABLED\tUSES\tOK\tERR\tLAST USED\tCOOLDOWN UNTIL")
	for _, c := range creds {
		lastUsed := "-"
		if c.LastUsedAt != nil {
			lastUsed = c.LastUsedAt.Format(time.RFC3339)
		}
		cooldown := "-"
		if c.CooldownUntil != nil {
			cooldown = c.CooldownUntil.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d\t%d\t%s\t%s\n",
			c.ID, c.Platform, c.Status, c.Enabled,
			c.UseCount, c.SuccessCount, c.ErrorCount, lastUsed, cooldown)
	}
	w.Flush()
}
