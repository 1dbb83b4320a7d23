package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
)

type conventionsRepo struct {
	db dbtx
}

// fileRequirementsDoc / hookDoc are the JSON column shapes. They reuse the
// public wire field names so seeded databases stay readable.
type fileRequirementsDoc struct {
	AcceptedTypes []string `json:"accepted_types"`
	MaxFileSize   int64    `json:"max_file_size"`
	MinCount      int      `json:"min_count"`
	MaxCount      int      `json:"max_count"`
}

type hookDoc struct {
	Image  string         `json:"image"`
	Digest string         `json:"digest"`
	Runner string         `json:"runner,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

func (r *conventionsRepo) CreateConvention(ctx context.Context, c domain.Convention) error {
	reqs, err := json.Marshal(fileRequirementsDoc(c.FileRequirements))
	if err != nil {
		return fmt.Errorf("sqlite: marshal file requirements: %w", err)
	}

	hookDocs := make([]hookDoc, 0, len(c.Hooks))
	for _, h := range c.Hooks {
		hookDocs = append(hookDocs, hookDoc(h))
	}
	hooks, err := json.Marshal(hookDocs)
	if err != nil {
		return fmt.Errorf("sqlite: marshal hooks: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conventions (srn, title, description, schema_srn, file_requirements, hooks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.SRN.String(), c.Title, c.Description, c.SchemaSRN.String(),
		string(reqs), string(hooks), c.CreatedAt.UTC(),
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *conventionsRepo) GetConvention(ctx context.Context, srnKey string) (domain.Convention, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT srn, title, description, schema_srn, file_requirements, hooks, created_at
		FROM conventions WHERE srn = ?`, srnKey)
	return scanConvention(row)
}

func (r *conventionsRepo) ListConventions(ctx context.Context) ([]domain.Convention, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT srn, title, description, schema_srn, file_requirements, hooks, created_at
		FROM conventions ORDER BY created_at DESC, srn`)
	if err != nil {
		return nil, err
	}
	return collectConventions(rows)
}

func (r *conventionsRepo) SearchConventions(
	ctx context.Context,
	q string,
	offset, limit int,
) ([]domain.Convention, int, error) {
	pattern := "%" + q + "%"

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conventions
		WHERE (title LIKE ? OR description LIKE ?)`,
		pattern, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT srn, title, description, schema_srn, file_requirements, hooks, created_at
		FROM conventions
		WHERE (title LIKE ? OR description LIKE ?)
		ORDER BY created_at DESC, srn
		LIMIT ? OFFSET ?`, pattern, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items, err := collectConventions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *conventionsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conventions`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func collectConventions(rows *sql.Rows) ([]domain.Convention, error) {
	defer rows.Close()

	var items []domain.Convention
	for rows.Next() {
		c, err := scanConvention(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func scanConvention(row rowScanner) (domain.Convention, error) {
	var c domain.Convention
	var rawSRN, rawSchema, reqs, hooks string
	err := row.Scan(&rawSRN, &c.Title, &c.Description, &rawSchema, &reqs, &hooks, &c.CreatedAt)
	if err != nil {
		return domain.Convention{}, mapNotFound(err)
	}

	if c.SRN, err = parseSRN(rawSRN); err != nil {
		return domain.Convention{}, err
	}
	if c.SchemaSRN, err = parseSRN(rawSchema); err != nil {
		return domain.Convention{}, err
	}

	var reqsDoc fileRequirementsDoc
	if err := json.Unmarshal([]byte(reqs), &reqsDoc); err != nil {
		return domain.Convention{}, fmt.Errorf("sqlite: unmarshal file requirements: %w", err)
	}
	c.FileRequirements = domain.FileRequirements(reqsDoc)

	var hookDocs []hookDoc
	if err := json.Unmarshal([]byte(hooks), &hookDocs); err != nil {
		return domain.Convention{}, fmt.Errorf("sqlite: unmarshal hooks: %w", err)
	}
	for _, h := range hookDocs {
		c.Hooks = append(c.Hooks, domain.HookDefinition(h))
	}

	return c, nil
}

func isUniqueViolation(err error) bool {
	// modernc/sqlite reports constraint failures in the error text; there
	// is no exported errno surface worth depending on for a mock.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
