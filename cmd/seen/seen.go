// Package seen implements the seen command that displays the persistent
// seen-tender log in a formatted table.
package seen

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/tenderscan/internal/config"
	"github.com/jonesrussell/tenderscan/internal/database"
)

// Command returns the seen command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "seen",
		Short: "List tenders already reported",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}
}

func run(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	repo := database.NewSeenTenderRepository(db)
	if schemaErr := repo.EnsureSchema(cmd.Context()); schemaErr != nil {
		return schemaErr
	}

	tenders, err := repo.List(cmd.Context())
	if err != nil {
		return err
	}

	renderTable(tenders)

	return nil
}

// renderTable formats and displays the seen tenders in a table format.
func renderTable(tenders []database.SeenTender) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Tender ID", "First Seen"})

	for _, st := range tenders {
		t.AppendRow(table.Row{st.TenderID, st.FirstSeenAt.Format(time.RFC3339)})
	}

	t.Render()
}
