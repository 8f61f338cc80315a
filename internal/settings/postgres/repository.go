// Package postgres provides the PostgreSQL implementation of the settings
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zapmanager/zapmanager/internal/domain"
	"github.com/zapmanager/zapmanager/internal/settings"
)

// Repository implements settings.Repository using PostgreSQL. Settings are
// a single row keyed by id = 1 plus one template row per notice type.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get returns the stored settings, or settings.ErrNotConfigured when the
// row is missing or has no SMTP host.
func (r *Repository) Get(ctx context.Context) (*domain.NotificationSettings, error) {
	query := `
		SELECT smtp_host, smtp_port, smtp_use_tls, smtp_username, smtp_password, smtp_from_address, updated_at
		FROM notification_settings
		WHERE id = 1
	`
	var s domain.NotificationSettings
	err := r.db.QueryRow(ctx, query).Scan(
		&s.SMTP.Host,
		&s.SMTP.Port,
		&s.SMTP.UseTLS,
		&s.SMTP.Username,
		&s.SMTP.Password,
		&s.SMTP.FromAddress,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settings.ErrNotConfigured
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if s.SMTP.Host == "" {
		return nil, settings.ErrNotConfigured
	}

	templates, err := r.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	s.Templates = templates

	return &s, nil
}

func (r *Repository) loadTemplates(ctx context.Context) (map[domain.NoticeType]domain.NoticeTemplate, error) {
	query := `SELECT notice_type, subject, body FROM notification_templates`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := make(map[domain.NoticeType]domain.NoticeTemplate)
	for rows.Next() {
		var noticeType domain.NoticeType
		var tmpl domain.NoticeTemplate
		if err := rows.Scan(&noticeType, &tmpl.Subject, &tmpl.Body); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates[noticeType] = tmpl
	}

	return templates, rows.Err()
}

// Save upserts the settings row and replaces the stored templates.
func (r *Repository) Save(ctx context.Context, s *domain.NotificationSettings) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	upsertQuery := `
		INSERT INTO notification_settings (id, smtp_host, smtp_port, smtp_use_tls, smtp_username, smtp_password, smtp_from_address, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			smtp_host = EXCLUDED.smtp_host,
			smtp_port = EXCLUDED.smtp_port,
			smtp_use_tls = EXCLUDED.smtp_use_tls,
			smtp_username = EXCLUDED.smtp_username,
			smtp_password = EXCLUDED.smtp_password,
			smtp_from_address = EXCLUDED.smtp_from_address,
			updated_at = NOW()
	`
	_, err = tx.Exec(ctx, upsertQuery,
		s.SMTP.Host,
		s.SMTP.Port,
		s.SMTP.UseTLS,
		s.SMTP.Username,
		s.SMTP.Password,
		s.SMTP.FromAddress,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	templateQuery := `
		INSERT INTO notification_templates (notice_type, subject, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (notice_type) DO UPDATE SET
			subject = EXCLUDED.subject,
			body = EXCLUDED.body
	`
	for noticeType, tmpl := range s.Templates {
		if _, err := tx.Exec(ctx, templateQuery, noticeType, tmpl.Subject, tmpl.Body); err != nil {
			return fmt.Errorf("upsert template %s: %w", noticeType, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
