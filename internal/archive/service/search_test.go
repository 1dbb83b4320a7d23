package service

import (
	"context"
	"testing"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/srn"
	"github.com/stretchr/testify/require"
)

func seedRecords(t *testing.T, st store.Store, titles ...string) {
	t.Helper()
	base := time.Now().UTC()
	for i, title := range titles {
		rec := domain.Record{
			SRN:         srn.New(testNodeID, srn.TypeRecord, idxLocal(i)).WithVersion("1"),
			Metadata:    map[string]any{"title": title},
			PublishedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, st.Records().CreateRecord(context.Background(), rec))
	}
}

func idxLocal(i int) string {
	return string(rune('a'+i)) + "-record"
}

func TestSearchIndexes(t *testing.T) {
	t.Parallel()
	svc := &SearchService{Store: newTestStore(t)}
	require.Equal(t, []string{"records", "conventions"}, svc.Indexes())
}

func TestSearchRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	seedRecords(t, st, "ZIF-8 crystal structure", "Perovskite thin film", "ZIF-67 analogue")
	svc := &SearchService{Store: st}

	t.Run("substring match", func(t *testing.T) {
		page, err := svc.Query(ctx, "records", "zif", 0, 10)
		require.NoError(t, err)
		require.Equal(t, "zif", page.Query)
		require.Equal(t, "records", page.Index)
		require.Equal(t, 2, page.Total)
		require.False(t, page.HasMore)
		require.Len(t, page.Results, 2)
		for _, hit := range page.Results {
			require.Equal(t, 1.0, hit.Score)
			require.Equal(t, srn.TypeRecord, hit.SRN.Type)
		}
	})

	t.Run("empty query matches all", func(t *testing.T) {
		page, err := svc.Query(ctx, "records", "", 0, 10)
		require.NoError(t, err)
		require.Equal(t, 3, page.Total)
	})

	t.Run("pagination reports has_more", func(t *testing.T) {
		first, err := svc.Query(ctx, "records", "", 0, 2)
		require.NoError(t, err)
		require.Equal(t, 2, first.Total)
		require.True(t, first.HasMore)

		rest, err := svc.Query(ctx, "records", "", 2, 2)
		require.NoError(t, err)
		require.Equal(t, 1, rest.Total)
		require.False(t, rest.HasMore)
	})

	t.Run("no hits", func(t *testing.T) {
		page, err := svc.Query(ctx, "records", "astronomy", 0, 10)
		require.NoError(t, err)
		require.Zero(t, page.Total)
		require.Empty(t, page.Results)
		require.False(t, page.HasMore)
	})
}

func TestSearchConventions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	conv := createConvention(t, st, domain.FileRequirements{MinCount: 1})
	svc := &SearchService{Store: st}

	page, err := svc.Query(ctx, "conventions", "fixture", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, conv.SRN, page.Results[0].SRN)
	require.Equal(t, conv.Title, page.Results[0].Metadata["title"])
}

func TestSearchUnknownIndex(t *testing.T) {
	t.Parallel()
	svc := &SearchService{Store: newTestStore(t)}

	_, err := svc.Query(context.Background(), "ontologies", "q", 0, 10)
	requireDomainErr(t, err, domain.KindNotFound, "not_found")
	require.Contains(t, err.Error(), "Available: records, conventions")
}
