package transactions

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// anchorDate is the "today" of the fixed demo dataset. Named time periods such
// as "this week" are resolved relative to it.
const anchorDate = "2023-10-14"

// Transaction is one read-only customer transaction record.
type Transaction struct {
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`
}

// RecentFilter narrows a recent-transactions lookup. Zero values are no-ops,
// not exclusions. Dates are ISO-8601 (YYYY-MM-DD).
type RecentFilter struct {
	StartDate string
	EndDate   string
	Category  string
	Merchant  string
	Limit     int
}

// DefaultRecentLimit bounds a recent-transactions lookup when no limit is given.
const DefaultRecentLimit = 5

// Store reads customer transactions from SQLite. All queries are parameterized;
// caller-supplied filter values never reach the SQL text.
type Store struct {
	db     *sql.DB
	anchor time.Time
}

// NewStore opens the transaction database at dbPath. The store never writes.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open transaction database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping transaction database: %w", err)
	}
	anchor, _ := time.Parse(time.DateOnly, anchorDate)
	return &Store{db: db, anchor: anchor}, nil
}

// Recent returns the most recent transactions matching the filter, newest
// first, truncated to the limit (DefaultRecentLimit when unset).
func (s *Store) Recent(ctx context.Context, f RecentFilter) ([]Transaction, error) {
	query := `SELECT amount, date, merchant, category FROM transactions WHERE 1=1`
	var args []any
	if f.StartDate != "" {
		query += ` AND date >= ?`
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		query += ` AND date <= ?`
		args = append(args, f.EndDate)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Merchant != "" {
		query += ` AND merchant = ?`
		args = append(args, f.Merchant)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query += ` ORDER BY date DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Summarize totals spending per category over the named time period.
// Unknown periods fall back to the last seven days.
func (s *Store) Summarize(ctx context.Context, period string) (map[string]float64, error) {
	start, end := s.resolveWindow(period, 7*24*time.Hour)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount) FROM transactions WHERE date >= ? AND date <= ? GROUP BY category`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query spending summary: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		totals[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return totals, nil
}

// Anomalies returns the transactions in the period whose amount strictly
// exceeds the threshold. A zero threshold defaults to 1.5x the period's mean
// amount. A period with no transactions yields an empty result.
func (s *Store) Anomalies(ctx context.Context, threshold float64, period string) ([]Transaction, error) {
	start, end := s.resolveWindow(period, 31*24*time.Hour)

	var mean sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(amount) FROM transactions WHERE date >= ? AND date <= ?`,
		start, end,
	).Scan(&mean)
	if err != nil {
		return nil, fmt.Errorf("query mean transaction amount: %w", err)
	}
	if !mean.Valid || mean.Float64 == 0 {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = mean.Float64 * 1.5
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, date, merchant, category FROM transactions
		 WHERE amount > ? AND date >= ? AND date <= ? ORDER BY date DESC`,
		threshold, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query anomalous transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// resolveWindow maps a named or explicit time period onto an inclusive ISO
// date range ending at the dataset anchor. Unrecognized periods fall back to
// the given default span rather than failing.
func (s *Store) resolveWindow(period string, defaultSpan time.Duration) (start, end string) {
	p := strings.ToLower(strings.TrimSpace(period))
	switch {
	case strings.Contains(p, "last month"):
		return s.anchor.AddDate(0, -1, 0).Format(time.DateOnly), s.anchor.Format(time.DateOnly)
	case strings.Contains(p, "this week"):
		return s.anchor.AddDate(0, 0, -7).Format(time.DateOnly), s.anchor.Format(time.DateOnly)
	}
	// explicit month, e.g. "2023-08"
	if month, err := time.Parse("2006-01", p); err == nil {
		first := month
		last := month.AddDate(0, 1, -1)
		return first.Format(time.DateOnly), last.Format(time.DateOnly)
	}
	return s.anchor.Add(-defaultSpan).Format(time.DateOnly), s.anchor.Format(time.DateOnly)
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.Amount, &t.Date, &t.Merchant, &t.Category); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
