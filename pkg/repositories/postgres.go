package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/parlor/pelmanism/pkg/sim"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and ensures the
// schema exists. The caller is responsible for calling Close().
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS op_results (
		id BIGSERIAL PRIMARY KEY,
		timestamp BIGINT NOT NULL,
		player_id TEXT NOT NULL,
		op TEXT NOT NULL,
		duration_us BIGINT NOT NULL,
		err_kind TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS snapshots (
		id BIGSERIAL PRIMARY KEY,
		timestamp BIGINT NOT NULL,
		board TEXT NOT NULL
	);
	`
	if _, err := conn.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveOpResults(ctx context.Context, results []sim.OpResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := `
	INSERT INTO op_results (timestamp, player_id, op, duration_us, err_kind)
	VALUES ($1, $2, $3, $4, $5);
	`
	for _, res := range results {
		_, err = tx.Exec(ctx, q, res.Timestamp, res.PlayerID, res.Op, res.Duration.Microseconds(), res.ErrKind)
		if err != nil {
			return fmt.Errorf("failed to insert op result: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) SaveSnapshot(ctx context.Context, timestamp int64, boardText string) error {
	q := `
	INSERT INTO snapshots (timestamp, board)
	VALUES ($1, $2);
	`
	_, err := r.conn.Exec(ctx, q, timestamp, boardText)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadOpCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn.Query(ctx, "SELECT op, COUNT(*) FROM op_results GROUP BY op")
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

func (r *PostgresRepository) LoadLatestSnapshot(ctx context.Context) (string, error) {
	q := `
	SELECT board FROM snapshots ORDER BY id DESC LIMIT 1;
	`
	var boardText string
	if err := r.conn.QueryRow(ctx, q).Scan(&boardText); err != nil {
		if err == pgx.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan snapshot: %v", err)
	}

	return boardText, nil
}
