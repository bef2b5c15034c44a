package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"github.com/rs/zerolog"
)

// Migrate executes every *.sql file in migrations in lexical order. Files must be
// idempotent (CREATE ... IF NOT EXISTS); nothing records which files already ran.
func Migrate(ctx context.Context, pool Pool, migrations fs.FS, log zerolog.Logger) error {
	names, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, name := range names {
		sql, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", path.Base(name), err)
		}
		log.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}
