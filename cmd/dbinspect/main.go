// Command dbinspect reports on the card store database: its public tables,
// every stored card and the business_cards column layout. It creates the
// table when missing unless --create=false.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duynhne/card-service/config"
	database "github.com/duynhne/card-service/internal/core"
	"github.com/duynhne/card-service/internal/core/domain"
	"github.com/duynhne/card-service/internal/core/repository/psql"
	"github.com/duynhne/card-service/middleware"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		create  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:           "dbinspect",
		Short:         "Inspect the business_cards database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()

			logger, err := middleware.NewLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pool, err := database.Connect(ctx, &cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			logger.Info("Connected to database")

			return inspect(ctx, cmd.OutOrStdout(), pool, logger, create)
		},
	}
	cmd.Flags().BoolVar(&create, "create", true, "create the business_cards table when it is missing")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	return cmd
}

func inspect(ctx context.Context, w io.Writer, pool *pgxpool.Pool, logger *zap.Logger, create bool) error {
	tables, err := database.ListTables(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Tables:")
	if len(tables) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, table := range tables {
		fmt.Fprintf(w, "  - %s\n", table)
	}
	fmt.Fprintln(w)

	if !slices.Contains(tables, database.CardsTable) {
		if !create {
			fmt.Fprintf(w, "Table %s does not exist.\n", database.CardsTable)
			return nil
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("Created table", zap.String("table", database.CardsTable))
		fmt.Fprintf(w, "Created table %s.\n\n", database.CardsTable)
	}

	cards, err := psql.NewCardRepository(pool).List(ctx)
	if err != nil {
		return err
	}
	writeCards(w, cards)

	columns, err := database.DescribeTable(ctx, pool, database.CardsTable)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s columns:\n", database.CardsTable)
	for _, col := range columns {
		nullable := "not null"
		if col.Nullable {
			nullable = "nullable"
		}
		fmt.Fprintf(w, "  - %s: %s (%s)\n", col.Name, col.DataType, nullable)
	}
	return nil
}

func writeCards(w io.Writer, cards []*domain.BusinessCard) {
	fmt.Fprintf(w, "Found %d business cards.\n\n", len(cards))
	for i, card := range cards {
		fmt.Fprintf(w, "--- Card %d ---\n", i+1)
		fmt.Fprintf(w, "ID: %s\n", card.ID)
		fmt.Fprintf(w, "Name: %s %s\n", card.FirstName, card.LastName)
		fmt.Fprintf(w, "Phone: %s\n", card.PhoneNumber)
		fmt.Fprintf(w, "Email: %s\n", orNA(domain.Deref(card.Email)))
		fmt.Fprintf(w, "Note: %s\n", orNA(domain.Deref(card.Note)))
		fmt.Fprintf(w, "Front Image: %s\n", yesNo(card.FrontImageURL != nil))
		fmt.Fprintf(w, "Back Image: %s\n", yesNo(card.BackImageURL != nil))
		fmt.Fprintf(w, "Created: %s\n", card.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "Updated: %s\n\n", card.UpdatedAt.Local().Format(time.DateTime))
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
