package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"jobrag/config"
	"jobrag/internal/domain"
)

// PostgresStore searches a pgvector-backed corpus table. The table holds one
// row per chunk: id, text, metadata (jsonb) and embedding (vector).
type PostgresStore struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// NewPostgresStore opens a connection pool against the configured database
// and verifies connectivity.
func NewPostgresStore(cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	table := cfg.Table
	if table == "" {
		table = "job_embeddings"
	}

	logger.Info("vector store connection established",
		zap.String("connection", cfg.LogString()),
		zap.String("table", table))

	return &PostgresStore{db: db, table: table, logger: logger}, nil
}

// Search runs a nearest-neighbor query with optional metadata equality
// filters and returns candidates ordered by ascending cosine distance.
func (s *PostgresStore) Search(ctx context.Context, vector []float32, filters domain.Filters, limit int) ([]domain.Candidate, error) {
	vec := vectorLiteral(vector)

	where := make([]string, 0, 4)
	args := []any{vec}
	for _, fv := range filters.Fields() {
		args = append(args, fv[1])
		where = append(where, fmt.Sprintf("metadata->>'%s' = $%d", fv[0], len(args)))
	}
	whereSQL := "TRUE"
	if len(where) > 0 {
		whereSQL = strings.Join(where, " AND ")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, text, metadata, embedding <=> $1::vector AS distance
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d`, s.table, whereSQL, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var (
			id       int64
			text     string
			metaJSON []byte
			distance float64
		)
		if err := rows.Scan(&id, &text, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}

		meta := domain.Metadata{}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &meta); err != nil {
				s.logger.Warn("skipping row with malformed metadata",
					zap.Int64("id", id), zap.Error(err))
				continue
			}
		}

		out = append(out, domain.Candidate{
			Chunk: domain.Chunk{
				ID:       strconv.FormatInt(id, 10),
				Text:     text,
				Metadata: meta,
			},
			Distance: distance,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return out, nil
}

// Upsert appends chunks to the corpus table in a single transaction. The id
// column is serial, so chunk IDs assigned elsewhere are not preserved.
func (s *PostgresStore) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk and vector counts differ: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (text, metadata, embedding) VALUES ($1, $2, $3::vector)", s.table))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		metaJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for chunk %s: %w", chunk.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.Text, metaJSON, vectorLiteral(vectors[i])); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// vectorLiteral renders a pgvector input literal, e.g. "[0.1,0.2]".
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
