package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-astrology/internal/config"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// Workbook is the SQLite-backed sink: one table per sheet.
type Workbook struct {
	db  *sql.DB
	now func() time.Time
}

// StoredRow is a row read back from the workbook.
type StoredRow struct {
	ID        string
	CreatedAt time.Time
	Row
}

// OpenWorkbook opens (or creates) the database at path and applies migrations.
func OpenWorkbook(ctx context.Context, path string) (*Workbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply pragmas: %w", config.ErrStoreOpen, err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrations: %w", config.ErrStoreOpen, err)
	}

	return &Workbook{db: db, now: time.Now}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (w *Workbook) Close() error {
	return w.db.Close()
}

// Append inserts the row into its sheet's table in a single statement.
func (w *Workbook) Append(ctx context.Context, row Row) error {
	if err := row.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	cols, _ := Schema(row.Sheet)

	id := uuid.NewString()
	args := make([]any, 0, len(row.Fields)+2)
	args = append(args, id, w.now().UTC().Unix())
	for _, f := range row.Fields {
		args = append(args, f)
	}

	// Table and column names come from the fixed schema table, never from input.
	query := fmt.Sprintf("INSERT INTO %s (id, created_at, %s) VALUES (?, ?%s)",
		row.Sheet,
		strings.Join(cols, ", "),
		strings.Repeat(", ?", len(cols)),
	)
	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, row.Sheet, err)
	}

	slog.Info(config.MsgRowAppended,
		config.LogKeyComponent, config.CompStore,
		config.LogKeySheet, string(row.Sheet),
		config.LogKeyKey, id,
	)
	return nil
}

// Rows returns the most recent rows of a sheet, newest first.
func (w *Workbook) Rows(ctx context.Context, sheet Sheet, limit int) ([]StoredRow, error) {
	cols, err := Schema(sheet)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, created_at, %s FROM %s ORDER BY created_at DESC, rowid DESC LIMIT ?",
		strings.Join(cols, ", "), sheet)
	rows, err := w.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var (
			id      string
			created int64
		)
		fields := make([]string, len(cols))
		dest := make([]any, 0, len(cols)+2)
		dest = append(dest, &id, &created)
		for i := range fields {
			dest = append(dest, &fields[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, StoredRow{
			ID:        id,
			CreatedAt: time.Unix(created, 0).UTC(),
			Row:       Row{Sheet: sheet, Fields: fields},
		})
	}
	return out, rows.Err()
}
