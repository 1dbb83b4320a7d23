package service

import (
	"context"
	"errors"
	"strings"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
)

type RecordService struct {
	Store store.Store
}

// GetRecord fetches a published record by SRN. An unversioned SRN resolves
// to the newest published version. Returns store.ErrNotFound unchanged; the
// records endpoint reports misses its own way.
func (s *RecordService) GetRecord(ctx context.Context, srnStr string) (domain.Record, error) {
	rec, err := s.Store.Records().GetRecord(ctx, srnStr)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return rec, err
	}
	if strings.Contains(srnStr, "@") {
		return domain.Record{}, err
	}
	return s.Store.Records().GetLatestRecord(ctx, srnStr)
}
