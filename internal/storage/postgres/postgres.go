// Package postgres is the Store for multi-instance deployments.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Store keeps a pgx pool so connections are reused across bot updates.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New migrates the schema and opens a pool against connStr.
func New(ctx context.Context, connStr string) (*Store, error) {
	if err := storage.RunMigrations(storage.DialectPostgres, connStr); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (p *Store) Close() error {
	p.pool.Close()
	return nil
}

func (p *Store) Ping(ctx context.Context) error {
	return core.Unavailable("ping", p.pool.Ping(ctx))
}

func (p *Store) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	query := `
        INSERT INTO expenses (user_id, amount_cents, category, description, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id;
    `
	var id int64
	err := p.pool.QueryRow(ctx, query, e.UserID, e.Amount.Cents, e.Category, e.Description, e.Timestamp.UTC()).Scan(&id)
	if err != nil {
		return 0, core.Unavailable("insert expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to Postgres",
		"id", id,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return id, nil
}

func (p *Store) InsertExpenses(ctx context.Context, es []core.Expense) (int, error) {
	rows := make([][]any, 0, len(es))
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("expense %d: %w", i+1, err)
		}
		rows = append(rows, []any{e.UserID, e.Amount.Cents, e.Category, e.Description, e.Timestamp.UTC()})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// COPY is a single statement, so the batch lands whole or not at all.
	n, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"expenses"},
		[]string{"user_id", "amount_cents", "category", "description", "created_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, core.Unavailable("import expenses", err)
	}

	slog.InfoContext(ctx, "Expenses imported to Postgres", "count", n)
	return int(n), nil
}

func (p *Store) GetExpense(ctx context.Context, id, userID int64) (core.Expense, error) {
	query := `
        SELECT id, user_id, amount_cents, category, description, created_at
        FROM expenses
        WHERE id = $1 AND user_id = $2;
    `
	var e core.Expense
	err := p.pool.QueryRow(ctx, query, id, userID).
		Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Description, &e.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, core.Unavailable("get expense", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}

func (p *Store) DeleteExpense(ctx context.Context, id, userID int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return core.Unavailable("delete expense", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (p *Store) QueryExpenses(ctx context.Context, userID int64, w core.Window, limit int) ([]core.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, amount_cents, category, description, created_at FROM expenses WHERE user_id = $1`)
	args := []any{userID}
	if !w.Start.IsZero() {
		args = append(args, w.Start.UTC())
		fmt.Fprintf(&sb, ` AND created_at >= $%d`, len(args))
	}
	if !w.End.IsZero() {
		args = append(args, w.End.UTC())
		fmt.Fprintf(&sb, ` AND created_at <= $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := p.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, core.Unavailable("query expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Description, &e.Timestamp); err != nil {
			return nil, core.Unavailable("scan expense", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Unavailable("query expenses", err)
	}
	return out, nil
}

func (p *Store) UpsertUserBudget(ctx context.Context, userID int64, limit core.Money) error {
	if userID <= 0 {
		return core.ErrInvalidUser
	}
	if limit.IsNegative() {
		return core.ErrInvalidAmount
	}
	query := `
        INSERT INTO users (user_id, budget_limit_cents)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE
        SET budget_limit_cents = EXCLUDED.budget_limit_cents, updated_at = now();
    `
	if _, err := p.pool.Exec(ctx, query, userID, limit.Cents); err != nil {
		return core.Unavailable("upsert budget", err)
	}
	return nil
}

func (p *Store) GetUserBudget(ctx context.Context, userID int64) (core.Money, bool, error) {
	var cents int64
	err := p.pool.QueryRow(ctx, `SELECT budget_limit_cents FROM users WHERE user_id = $1`, userID).Scan(&cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, core.Unavailable("get budget", err)
	}
	return core.Money{Cents: cents}, true, nil
}

func (p *Store) InsertSubscription(ctx context.Context, s core.Subscription) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (user_id, name, amount_cents) VALUES ($1, $2, $3) RETURNING id`,
		s.UserID, strings.TrimSpace(s.Name), s.Amount.Cents).Scan(&id)
	if err != nil {
		return 0, core.Unavailable("insert subscription", err)
	}
	return id, nil
}

func (p *Store) DeleteSubscription(ctx context.Context, id, userID int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return core.Unavailable("delete subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (p *Store) QuerySubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, name, amount_cents FROM subscriptions WHERE user_id = $1 ORDER BY id`, userID)
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
