package db

import (
	"database/sql"
	"embed"
	stdfs "io/fs"
	"regexp"
	"slices"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/oops"
)

// sqlitePragmas are appended to every DSN so they apply to each pooled connection,
// not just the first one.
const sqlitePragmas = "_foreign_keys=on&_busy_timeout=5000"

// Open opens (or creates) a local SQLite database file and applies pending migrations.
// It uses versioned .sql files under internal/db/migrations/sqlite following the pattern:
//
//	0001_name.up.sql / 0001_name.down.sql
//
// Only new migrations are applied. Use RollbackLast to revert the last applied migration.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = "app.db"
	}
	d, err := sql.Open("sqlite3", withPragmas(path))
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if isMemory(path) {
		// A shared-cache memory database raises SQLITE_LOCKED instead of waiting on
		// busy_timeout, so serialize access through a single connection.
		d.SetMaxOpenConns(1)
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	// journal_mode may not be supported in some contexts (e.g., in-memory). Ignore errors.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	if err := applyMigrations(d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func withPragmas(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqlitePragmas
	}
	return path + "?" + sqlitePragmas
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// RollbackLast reverts the most recently applied migration using its down script.
// It returns the reverted version, or 0 when no migration is applied.
func RollbackLast(d *sql.DB) (int, error) {
	if d == nil {
		return 0, oops.Code("DB_NIL").Errorf("nil db")
	}
	current, err := Version(d)
	if err != nil || current == 0 {
		return 0, err
	}
	migs, err := loadMigrations()
	if err != nil {
		return 0, err
	}
	for _, m := range migs {
		if m.version != current {
			continue
		}
		if m.downFile == "" {
			break
		}
		if err := execScript(d, m.downFile, `DELETE FROM schema_migrations WHERE version = ?`, current); err != nil {
			return 0, oops.Code("MIGRATION_DOWN_FAILED").With("version", current).With("name", m.name).Wrap(err)
		}
		return current, nil
	}
	return 0, oops.Code("MIGRATION_DOWN_MISSING").With("version", current).Errorf("no down script for migration %04d", current)
}

// Version returns the highest applied migration version, or 0 if none.
func Version(d *sql.DB) (int, error) {
	if err := ensureMigrationsTable(d); err != nil {
		return 0, err
	}
	var version sql.NullInt64
	if err := d.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return int(version.Int64), nil
}

//go:embed migrations/sqlite/*.sql
var migrationsFS embed.FS

const sqliteMigrationsDir = "migrations/sqlite"

// migration pairs the up and down scripts of one version.
type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

// loadMigrations lists the embedded scripts ordered by version.
func loadMigrations() ([]migration, error) {
	names, err := stdfs.Glob(migrationsFS, sqliteMigrationsDir+"/*.sql")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}
	byVersion := make(map[int]*migration)
	for _, p := range names {
		parts := migFileRe.FindStringSubmatch(strings.TrimPrefix(p, sqliteMigrationsDir+"/"))
		if parts == nil {
			continue
		}
		v, _ := strconv.Atoi(parts[1])
		m, ok := byVersion[v]
		if !ok {
			m = &migration{version: v, name: parts[2]}
			byVersion[v] = m
		}
		switch parts[3] {
		case "up":
			m.upFile = p
		case "down":
			m.downFile = p
		}
	}
	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

func ensureMigrationsTable(d *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
	)`
	if _, err := d.Exec(ddl); err != nil {
		return oops.Code("MIGRATION_TABLE_FAILED").Wrap(err)
	}
	return nil
}

// applyMigrations runs, in version order, every script above the recorded version.
func applyMigrations(d *sql.DB) error {
	current, err := Version(d)
	if err != nil {
		return err
	}
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migs {
		if m.version <= current {
			continue
		}
		if m.upFile == "" {
			return oops.Code("MIGRATION_UP_MISSING").With("version", m.version).Errorf("no up script for migration %04d", m.version)
		}
		if err := execScript(d, m.upFile, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			return oops.Code("MIGRATION_UP_FAILED").With("version", m.version).With("name", m.name).Wrap(err)
		}
	}
	return nil
}

// execScript runs one embedded script together with its schema_migrations bookkeeping
// in a single transaction.
func execScript(d *sql.DB, file, bookkeeping string, version int) error {
	script, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(script)); err != nil {
		return err
	}
	if _, err := tx.Exec(bookkeeping, version); err != nil {
		return err
	}
	return tx.Commit()
}
