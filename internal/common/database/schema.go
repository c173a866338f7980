package database

import (
	"embed"
	"fmt"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// EnsureSchema はドライバに対応するスキーマを適用します
// すべての文が IF NOT EXISTS のため、何度実行しても結果は変わりません
func (db *DB) EnsureSchema() error {
	ddl, err := schemaFS.ReadFile("schema/" + db.DriverName() + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %q: %w", db.DriverName(), err)
	}

	if _, err := db.Exec(string(ddl)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
