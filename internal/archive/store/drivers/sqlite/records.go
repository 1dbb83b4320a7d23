package sqlite

import (
	"context"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
)

type recordsRepo struct {
	db dbtx
}

func (r *recordsRepo) CreateRecord(ctx context.Context, rec domain.Record) error {
	metadata, err := marshalDoc(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO records (srn, deposition_srn, metadata, published_at)
		VALUES (?, ?, ?, ?)`,
		rec.SRN.String(), srnText(rec.DepositionSRN), metadata, rec.PublishedAt.UTC(),
	)
	return err
}

func (r *recordsRepo) GetRecord(ctx context.Context, srnKey string) (domain.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT srn, deposition_srn, metadata, published_at
		FROM records WHERE srn = ?`, srnKey)
	return scanRecord(row)
}

func (r *recordsRepo) GetLatestRecord(ctx context.Context, unversioned string) (domain.Record, error) {
	// Range scan over "<srn>@..." keys instead of LIKE, since SRN locals may
	// contain the LIKE wildcard '_'. '@' sorts directly before 'A', so the
	// half-open interval [srn+"@", srn+"A") covers exactly the versioned keys.
	row := r.db.QueryRowContext(ctx, `
		SELECT srn, deposition_srn, metadata, published_at
		FROM records WHERE srn >= ? AND srn < ?
		ORDER BY published_at DESC, srn DESC
		LIMIT 1`, unversioned+"@", unversioned+"A")
	return scanRecord(row)
}

func (r *recordsRepo) SearchRecords(
	ctx context.Context,
	q string,
	offset, limit int,
) ([]domain.Record, int, error) {
	// Substring match over the serialized metadata document (LIKE is
	// case-insensitive for ASCII). Good enough for a development mock;
	// the production archive fronts a real index.
	pattern := "%" + q + "%"

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records WHERE metadata LIKE ?`, pattern).
		Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT srn, deposition_srn, metadata, published_at
		FROM records WHERE metadata LIKE ?
		ORDER BY published_at DESC, srn
		LIMIT ? OFFSET ?`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	return recs, total, rows.Err()
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var rec domain.Record
	var rawSRN, rawDeposition, metadata string
	err := row.Scan(&rawSRN, &rawDeposition, &metadata, &rec.PublishedAt)
	if err != nil {
		return domain.Record{}, mapNotFound(err)
	}

	if rec.SRN, err = parseSRN(rawSRN); err != nil {
		return domain.Record{}, err
	}
	if rec.DepositionSRN, err = parseSRN(rawDeposition); err != nil {
		return domain.Record{}, err
	}
	if rec.Metadata, err = unmarshalDoc(metadata); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}
