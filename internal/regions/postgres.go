package regions

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresSource reads the distinct values of a region column from a table.
type PostgresSource struct {
	db     *sqlx.DB
	table  string
	column string
}

// NewPostgresSource connects to dsn. The caller owns Close.
func NewPostgresSource(ctx context.Context, dsn, table, column string) (*PostgresSource, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresSource{db: db, table: table, column: column}, nil
}

func (s *PostgresSource) Values(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.db.SelectContext(ctx, &out, distinctQuery(s.table, s.column)); err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) Close() error { return s.db.Close() }

func distinctQuery(table, column string) string {
	col := pq.QuoteIdentifier(column)
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL", col, pq.QuoteIdentifier(table), col)
}
