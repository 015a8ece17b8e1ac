package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Operation identifies the console operation being counted.
type Operation string

const (
	OpPostMessage  Operation = "post_message"
	OpPostReply    Operation = "post_reply"
	OpListChannels Operation = "list_channels"
	OpAuthTest     Operation = "auth_test"
)

// allOperations is the fixed set reported in stats and gauges.
var allOperations = []Operation{OpPostMessage, OpPostReply, OpListChannels, OpAuthTest}

// Store manages SQLite persistence for invocation counts.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store with the database at ~/.slackconsole/stats.db.
// The directory and database file are created if they don't exist.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	consoleDir := filepath.Join(homeDir, ".slackconsole")
	if err := os.MkdirAll(consoleDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .slackconsole directory: %w", err)
	}

	dbPath := filepath.Join(consoleDir, "stats.db")
	return NewStoreWithPath(dbPath)
}

// NewStoreWithPath creates a new Store with a custom database path.
func NewStoreWithPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS invocation_counts (
			operation TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER DEFAULT 0,
			PRIMARY KEY (operation, date)
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Increment increments the count for the given operation for today's date.
func (s *Store) Increment(op Operation) error {
	today := time.Now().Format("2006-01-02")

	upsertSQL := `
		INSERT INTO invocation_counts (operation, date, count)
		VALUES (?, ?, 1)
		ON CONFLICT(operation, date) DO UPDATE SET count = count + 1;
	`
	_, err := s.db.Exec(upsertSQL, string(op), today)
	if err != nil {
		return fmt.Errorf("failed to increment count: %w", err)
	}

	return nil
}

// GetTotalByOperation returns the cumulative count for a specific operation
// across all dates.
func (s *Store) GetTotalByOperation(op Operation) (int64, error) {
	var total int64
	row := s.db.QueryRow(
		"SELECT COALESCE(SUM(count), 0) FROM invocation_counts WHERE operation = ?",
		string(op),
	)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total for operation %s: %w", op, err)
	}
	return total, nil
}

// GetAllTotals returns a map of cumulative counts for all operations.
func (s *Store) GetAllTotals() (map[Operation]int64, error) {
	result := make(map[Operation]int64)

	for _, op := range allOperations {
		result[op] = 0
	}

	rows, err := s.db.Query(
		"SELECT operation, COALESCE(SUM(count), 0) FROM invocation_counts GROUP BY operation",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opStr string
		var total int64
		if err := rows.Scan(&opStr, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result[Operation(opStr)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// GetCountByDate returns the count for a specific operation and date.
func (s *Store) GetCountByDate(op Operation, date string) (int64, error) {
	var count int64
	row := s.db.QueryRow(
		"SELECT COALESCE(count, 0) FROM invocation_counts WHERE operation = ? AND date = ?",
		string(op), date,
	)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
