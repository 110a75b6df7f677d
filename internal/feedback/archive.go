package feedback

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNotFound = errors.New("feedback not found")

// Archive is the local SQLite record of every submission.
type Archive struct {
	db *sql.DB
}

func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Archive{db: db}, nil
}

// Migrate applies the embedded schema migrations.
func (a *Archive) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(a.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (a *Archive) Insert(ctx context.Context, s Submission) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO feedback (id, user_id, email, subject, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Email, s.Subject, s.Message, string(s.Status), s.CreatedAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (a *Archive) SetStatus(ctx context.Context, id string, status Status, lastErr string) error {
	res, err := a.db.ExecContext(ctx,
		`UPDATE feedback SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), lastErr, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *Archive) Get(ctx context.Context, id string) (*Submission, error) {
	var s Submission
	var status string
	err := a.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, subject, message, status, created_at
		FROM feedback WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.Email, &s.Subject, &s.Message, &status, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	s.Status = Status(status)
	return &s, nil
}

// ListByStatus returns submissions with the given status, oldest first.
func (a *Archive) ListByStatus(ctx context.Context, status Status, limit int) ([]Submission, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, user_id, email, subject, message, status, created_at
		FROM feedback WHERE status = ?
		ORDER BY created_at LIMIT ?`, string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		var st string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Email, &s.Subject, &s.Message, &st, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		s.Status = Status(st)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}
