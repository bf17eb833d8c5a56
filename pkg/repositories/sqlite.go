package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/parlor/pelmanism/pkg/sim"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveOpResults(ctx context.Context, results []sim.OpResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	q := `
	INSERT INTO op_results (timestamp, player_id, op, duration_us, err_kind)
	VALUES (?, ?, ?, ?, ?);
	`
	for _, res := range results {
		_, err = tx.ExecContext(ctx, q, res.Timestamp, res.PlayerID, res.Op, res.Duration.Microseconds(), res.ErrKind)
		if err != nil {
			return fmt.Errorf("failed to insert op result: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, timestamp int64, boardText string) error {
	q := `
	INSERT INTO snapshots (timestamp, board)
	VALUES (?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, timestamp, boardText)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadOpCounts(ctx context.Context) (map[string]int, error) {
	q := `
	SELECT op, COUNT(*) FROM op_results GROUP BY op;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query op counts: %v", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var op string
		var count int
		if err := rows.Scan(&op, &count); err != nil {
			return nil, fmt.Errorf("failed to scan op count: %v", err)
		}
		counts[op] = count
	}

	return counts, rows.Err()
}

func (r *SQLiteRepository) LoadLatestSnapshot(ctx context.Context) (string, error) {
	q := `
	SELECT board FROM snapshots ORDER BY id DESC LIMIT 1;
	`
	var boardText string
	if err := r.db.QueryRowContext(ctx, q).Scan(&boardText); err != nil {
		if err == sql.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan snapshot: %v", err)
	}

	return boardText, nil
}
