package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	migrations "github.com/musclepoints/spot-backend/migrations/postgres"
)

// Migrate aplica las migraciones embebidas en orden lexicográfico.
// Los statements son idempotentes (IF NOT EXISTS), así que re-aplicar es seguro.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)

	for _, name := range entries {
		b, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
