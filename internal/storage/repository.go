package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the default Store. Timestamps are stored as UTC unix
// nanoseconds so window filters are plain integer comparisons.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; readers share the connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath == ":memory:" {
		// A private in-memory database is per connection, so migrate it in place.
		if err := applySQLiteSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	} else if err := RunMigrations(DialectSQLite, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func applySQLiteSchema(db *sql.DB) error {
	schema, err := migrationsFS.ReadFile("migrations/sqlite/000001_init.up.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(schema))
	return err
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return core.Unavailable("ping", r.db.PingContext(ctx))
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.Cents, e.Category, e.Description, e.Timestamp.UTC().UnixNano())
	if err != nil {
		return 0, core.Unavailable("insert expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.Unavailable("insert expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return id, nil
}

func (r *SQLiteRepository) InsertExpenses(ctx context.Context, es []core.Expense) (int, error) {
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}
	if len(es) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.Unavailable("begin import", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, description, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, core.Unavailable("prepare import", err)
	}
	defer stmt.Close()

	for _, e := range es {
		if _, err := stmt.ExecContext(ctx, e.UserID, e.Amount.Cents, e.Category, e.Description, e.Timestamp.UTC().UnixNano()); err != nil {
			return 0, core.Unavailable("import expense", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, core.Unavailable("commit import", err)
	}

	slog.InfoContext(ctx, "Expenses imported to SQLite", "count", len(es))
	return len(es), nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id, userID int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount_cents, category, description, created_at FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, core.Unavailable("get expense", err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Unavailable("delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Unavailable("delete expense", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) QueryExpenses(ctx context.Context, userID int64, w core.Window, limit int) ([]core.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, amount_cents, category, description, created_at FROM expenses WHERE user_id = ?`)
	args := []any{userID}
	if !w.Start.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, w.Start.UTC().UnixNano())
	}
	if !w.End.IsZero() {
		sb.WriteString(` AND created_at <= ?`)
		args = append(args, w.End.UTC().UnixNano())
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, core.Unavailable("query expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, core.Unavailable("scan expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Unavailable("query expenses", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertUserBudget(ctx context.Context, userID int64, limit core.Money) error {
	if userID <= 0 {
		return core.ErrInvalidUser
	}
	if limit.IsNegative() {
		return core.ErrInvalidAmount
	}

	ts := r.now().UTC().UnixNano()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, budget_limit_cents, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET budget_limit_cents = excluded.budget_limit_cents, updated_at = excluded.updated_at`,
		userID, limit.Cents, ts, ts)
	if err != nil {
		return core.Unavailable("upsert budget", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite", "user_id", userID, "amount_cents", limit.Cents)
	return nil
}

func (r *SQLiteRepository) GetUserBudget(ctx context.Context, userID int64) (core.Money, bool, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `SELECT budget_limit_cents FROM users WHERE user_id = ?`, userID).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, core.Unavailable("get budget", err)
	}
	return core.Money{Cents: cents}, true, nil
}

func (r *SQLiteRepository) InsertSubscription(ctx context.Context, s core.Subscription) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, name, amount_cents, created_at) VALUES (?, ?, ?, ?)`,
		s.UserID, strings.TrimSpace(s.Name), s.Amount.Cents, r.now().UTC().UnixNano())
	if err != nil {
		return 0, core.Unavailable("insert subscription", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.Unavailable("insert subscription", err)
	}
	return id, nil
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Unavailable("delete subscription", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Unavailable("delete subscription", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) QuerySubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, amount_cents FROM subscriptions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, core.Unavailable("query subscriptions", err)
	}
	defer rows.Close()

	var out []core.Subscription
	for rows.Next() {
		var s core.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Amount.Cents); err != nil {
			return nil, core.Unavailable("scan subscription", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Unavailable("query subscriptions", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e  core.Expense
		ns int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Description, &ns); err != nil {
		return core.Expense{}, err
	}
	e.Timestamp = time.Unix(0, ns).UTC()
	return e, nil
}
