package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
)

type depositionsRepo struct {
	db dbtx
}

func (r *depositionsRepo) CreateDeposition(ctx context.Context, d domain.Deposition) error {
	metadata, err := marshalDoc(d.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO depositions (srn, convention_srn, owner_id, status, metadata, record_srn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SRN.String(), d.ConventionSRN.String(), d.OwnerID, string(d.Status),
		metadata, srnText(d.RecordSRN), d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	)
	return err
}

func (r *depositionsRepo) GetDeposition(ctx context.Context, srnKey string) (domain.Deposition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT srn, convention_srn, owner_id, status, metadata, record_srn, created_at, updated_at
		FROM depositions WHERE srn = ?`, srnKey)

	d, err := scanDeposition(row)
	if err != nil {
		return domain.Deposition{}, err
	}

	files, err := r.listFiles(ctx, srnKey)
	if err != nil {
		return domain.Deposition{}, err
	}
	d.Files = files
	return d, nil
}

func (r *depositionsRepo) UpdateDeposition(ctx context.Context, d domain.Deposition) error {
	metadata, err := marshalDoc(d.Metadata)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE depositions SET status = ?, metadata = ?, record_srn = ?, updated_at = ?
		WHERE srn = ?`,
		string(d.Status), metadata, srnText(d.RecordSRN), d.UpdatedAt.UTC(), d.SRN.String(),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *depositionsRepo) ListDepositions(ctx context.Context) ([]domain.Deposition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT srn, convention_srn, owner_id, status, metadata, record_srn, created_at, updated_at
		FROM depositions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return r.collectDepositions(ctx, rows)
}

func (r *depositionsRepo) ListDepositionsByOwner(
	ctx context.Context,
	ownerID string,
) ([]domain.Deposition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT srn, convention_srn, owner_id, status, metadata, record_srn, created_at, updated_at
		FROM depositions WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return r.collectDepositions(ctx, rows)
}

func (r *depositionsRepo) PutFile(
	ctx context.Context,
	srnKey string,
	f domain.DepositionFile,
	content []byte,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deposition_files (deposition_srn, filename, size_bytes, checksum, content_type, content, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deposition_srn, filename) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			checksum = excluded.checksum,
			content_type = excluded.content_type,
			content = excluded.content,
			uploaded_at = excluded.uploaded_at`,
		srnKey, f.Name, f.Size, f.Checksum, f.ContentType, content, f.UploadedAt.UTC(),
	)
	return err
}

func (r *depositionsRepo) GetFileContent(ctx context.Context, srnKey, filename string) ([]byte, error) {
	var content []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT content FROM deposition_files WHERE deposition_srn = ? AND filename = ?`,
		srnKey, filename).Scan(&content)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return content, nil
}

func (r *depositionsRepo) DeleteFile(ctx context.Context, srnKey, filename string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM deposition_files WHERE deposition_srn = ? AND filename = ?`,
		srnKey, filename)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *depositionsRepo) listFiles(ctx context.Context, srnKey string) ([]domain.DepositionFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT filename, size_bytes, checksum, content_type, uploaded_at
		FROM deposition_files WHERE deposition_srn = ? ORDER BY uploaded_at, filename`, srnKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.DepositionFile
	for rows.Next() {
		var f domain.DepositionFile
		if err := rows.Scan(&f.Name, &f.Size, &f.Checksum, &f.ContentType, &f.UploadedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *depositionsRepo) collectDepositions(
	ctx context.Context,
	rows *sql.Rows,
) ([]domain.Deposition, error) {
	defer rows.Close()

	var deps []domain.Deposition
	for rows.Next() {
		d, err := scanDeposition(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range deps {
		files, err := r.listFiles(ctx, deps[i].SRN.String())
		if err != nil {
			return nil, err
		}
		deps[i].Files = files
	}
	return deps, nil
}

func scanDeposition(row rowScanner) (domain.Deposition, error) {
	var d domain.Deposition
	var rawSRN, rawConvention, rawRecord, status, metadata string
	err := row.Scan(&rawSRN, &rawConvention, &d.OwnerID, &status, &metadata, &rawRecord,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Deposition{}, mapNotFound(err)
	}

	if d.SRN, err = parseSRN(rawSRN); err != nil {
		return domain.Deposition{}, err
	}
	if d.ConventionSRN, err = parseSRN(rawConvention); err != nil {
		return domain.Deposition{}, err
	}
	if d.RecordSRN, err = parseSRN(rawRecord); err != nil {
		return domain.Deposition{}, err
	}
	if d.Metadata, err = unmarshalDoc(metadata); err != nil {
		return domain.Deposition{}, err
	}
	d.Status = domain.DepositionStatus(status)
	return d, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
