package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// pgxPool is the subset of pgxpool.Pool used by PostgresStore.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	upsertChunkSQL = `
		INSERT INTO metadata_chunks (id, text, embedding, updated_at)
		VALUES ($1, $2, $3::vector, now())
		ON CONFLICT (id) DO UPDATE
		SET text = EXCLUDED.text, embedding = EXCLUDED.embedding, updated_at = now()
	`
	queryChunksSQL = `
		SELECT id, text, 1 - (embedding <=> $1::vector) AS score
		FROM metadata_chunks
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`
)

// PostgresStore stores chunks in a pgvector column and searches by cosine distance.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool pgxPool) *PostgresStore {
	if pool == nil {
		panic("vectorstore: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, vectors []Vector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := validateVectors(vectors); err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, v := range vectors {
		if _, err := tx.Exec(ctx, upsertChunkSQL, v.ID, v.Text, vectorLiteral(v.Values)); err != nil {
			return 0, fmt.Errorf("vectorstore: upsert %s: %w", v.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("vectorstore: commit upsert: %w", err)
	}
	return len(vectors), nil
}

func (s *PostgresStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		topK = 5
	}

	rows, err := s.pool.Query(ctx, queryChunksSQL, vectorLiteral(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: similarity query failed: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m     Match
			score float64
		)
		if err := rows.Scan(&m.ID, &m.Text, &score); err != nil {
			return nil, fmt.Errorf("vectorstore: scan match: %w", err)
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: iterate matches: %w", err)
	}
	return matches, nil
}

// vectorLiteral renders values in pgvector's text input format, e.g. [0.1,0.2].
func vectorLiteral(values []float32) string {
	var b strings.Builder
	b.Grow(len(values) * 8)
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
