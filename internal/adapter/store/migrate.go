package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

// hnswVectorLimit is the widest vector column pgvector indexes with HNSW.
const hnswVectorLimit = 2000

// Migrate applies pending schema migrations in file-name order. Vector
// columns are created with the given dimension.
func (s *PostgresStore) Migrate(ctx context.Context, dimension int) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")

		var applied bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied {
			continue
		}

		raw, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}
		body := renderMigration(string(raw), dimension)

		err = s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, body); err != nil {
				return fmt.Errorf("apply migration %s: %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return err
		}
		slog.Info("applied migration", "version", version, "dimension", dimension)
	}
	return nil
}

// renderMigration fills the dimension-dependent parts of a migration. Above
// hnswVectorLimit the index and the distance in match_documents both go
// through a halfvec cast so the planner can use the expression index.
func renderMigration(raw string, dimension int) string {
	dim := strconv.Itoa(dimension)
	indexExpr, indexOps := "embedding", "vector_cosine_ops"
	distance := "e.embedding <=> query_embedding"
	if dimension > hnswVectorLimit {
		cast := "::halfvec(" + dim + ")"
		indexExpr, indexOps = "(embedding"+cast+")", "halfvec_cosine_ops"
		distance = "(e.embedding" + cast + ") <=> (query_embedding" + cast + ")"
	}
	return strings.NewReplacer(
		"{{dimension}}", dim,
		"{{index_expr}}", indexExpr,
		"{{index_ops}}", indexOps,
		"{{distance}}", distance,
	).Replace(raw)
}
