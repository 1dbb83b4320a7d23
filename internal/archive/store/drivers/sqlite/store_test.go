package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/srn"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, id string) domain.User {
	t.Helper()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	u := domain.User{
		ID:          id,
		Provider:    "orcid",
		ExternalID:  "0000-0002-1825-0097",
		DisplayName: "Josiah Carberry",
		Roles:       []string{domain.RoleDepositor},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedConvention(t *testing.T, s *Store, local string) domain.Convention {
	t.Helper()
	c := domain.Convention{
		SRN:         srn.New("osa-dev", srn.TypeConvention, local).WithVersion("1.0.0"),
		Title:       "X-ray Crystallography Deposits",
		Description: "Structures determined by single-crystal diffraction",
		SchemaSRN:   srn.New("osa-dev", srn.TypeSchema, local+"-metadata").WithVersion("1.0.0"),
		FileRequirements: domain.FileRequirements{
			AcceptedTypes: []string{".cif", ".csv"},
			MaxFileSize:   1 << 20,
			MinCount:      1,
			MaxCount:      5,
		},
		Hooks: []domain.HookDefinition{{
			Image:  "ghcr.io/osa/cif-validate",
			Digest: "sha256:4f5a",
			Config: map[string]any{"strict": true},
		}},
		CreatedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Conventions().CreateConvention(context.Background(), c))
	return c
}

func TestUsersRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "01jd2qz7v8aaaaaaaaaaaaaaaa")

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.DisplayName, got.DisplayName)
	require.Equal(t, u.Roles, got.Roles)

	byIdentity, err := s.Users().GetUserByProviderIdentity(ctx, "orcid", "0000-0002-1825-0097")
	require.NoError(t, err)
	require.Equal(t, u.ID, byIdentity.ID)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestRefreshTokensRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "01jd2qz7v8bbbbbbbbbbbbbbbb")
	now := time.Now().UTC()

	mint := func(id, hash, family string, expiresAt time.Time) domain.RefreshToken {
		tok := domain.RefreshToken{
			ID: id, UserID: u.ID, FamilyID: family, TokenHash: hash,
			ExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, tok))
		return tok
	}

	t.Run("round trip and revoke", func(t *testing.T) {
		mint("rt-1", "hash-1", "fam-1", now.Add(time.Hour))

		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.False(t, got.Revoked)
		require.Equal(t, "fam-1", got.FamilyID)

		require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-1"))
		got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("family revocation sweeps every member", func(t *testing.T) {
		mint("rt-2", "hash-2", "fam-2", now.Add(time.Hour))
		mint("rt-3", "hash-3", "fam-2", now.Add(time.Hour))
		mint("rt-4", "hash-4", "fam-other", now.Add(time.Hour))

		require.NoError(t, s.RefreshTokens().RevokeTokenFamily(ctx, "fam-2"))

		for _, hash := range []string{"hash-2", "hash-3"} {
			got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
			require.NoError(t, err)
			require.True(t, got.Revoked, hash)
		}
		other, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-4")
		require.NoError(t, err)
		require.False(t, other.Revoked)
	})

	t.Run("expired tokens are swept", func(t *testing.T) {
		mint("rt-5", "hash-5", "fam-5", now.Add(-time.Hour))

		require.NoError(t, s.RefreshTokens().DeleteExpiredRefreshTokens(ctx))
		_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-5")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown hash is not found", func(t *testing.T) {
		_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "no-such")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDepositionsRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "01jd2qz7v8cccccccccccccccc")
	conv := seedConvention(t, s, "crystallography")
	created := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	dep := domain.Deposition{
		SRN:           srn.New("osa-dev", srn.TypeDeposition, "dep-1"),
		ConventionSRN: conv.SRN,
		OwnerID:       u.ID,
		Status:        domain.StatusDraft,
		Metadata:      map[string]any{"title": "ZIF-8 crystal structure"},
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, s.Depositions().CreateDeposition(ctx, dep))

	t.Run("round trip", func(t *testing.T) {
		got, err := s.Depositions().GetDeposition(ctx, dep.SRN.String())
		require.NoError(t, err)
		require.Equal(t, dep.SRN, got.SRN)
		require.Equal(t, conv.SRN, got.ConventionSRN)
		require.Equal(t, domain.StatusDraft, got.Status)
		require.Equal(t, "ZIF-8 crystal structure", got.Metadata["title"])
		require.Empty(t, got.Files)
	})

	t.Run("file lifecycle", func(t *testing.T) {
		f := domain.DepositionFile{
			Name: "structure.cif", Size: 4, Checksum: "sha256:ab",
			ContentType: "chemical/x-cif", UploadedAt: created,
		}
		require.NoError(t, s.Depositions().PutFile(ctx, dep.SRN.String(), f, []byte("data")))

		content, err := s.Depositions().GetFileContent(ctx, dep.SRN.String(), "structure.cif")
		require.NoError(t, err)
		require.Equal(t, []byte("data"), content)

		// replacement keeps a single row
		f.Size = 6
		require.NoError(t, s.Depositions().PutFile(ctx, dep.SRN.String(), f, []byte("data-2")))
		got, err := s.Depositions().GetDeposition(ctx, dep.SRN.String())
		require.NoError(t, err)
		require.Len(t, got.Files, 1)
		require.Equal(t, int64(6), got.Files[0].Size)

		require.NoError(t, s.Depositions().DeleteFile(ctx, dep.SRN.String(), "structure.cif"))
		_, err = s.Depositions().GetFileContent(ctx, dep.SRN.String(), "structure.cif")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Depositions().DeleteFile(ctx, dep.SRN.String(), "structure.cif"), store.ErrNotFound)
	})

	t.Run("update persists status and record link", func(t *testing.T) {
		got, err := s.Depositions().GetDeposition(ctx, dep.SRN.String())
		require.NoError(t, err)

		got.Status = domain.StatusPublished
		got.RecordSRN = srn.New("osa-dev", srn.TypeRecord, "rec-1").WithVersion("1")
		got.Metadata["keywords"] = []any{"MOF"}
		got.UpdatedAt = created.Add(time.Hour)
		require.NoError(t, s.Depositions().UpdateDeposition(ctx, got))

		reread, err := s.Depositions().GetDeposition(ctx, dep.SRN.String())
		require.NoError(t, err)
		require.Equal(t, domain.StatusPublished, reread.Status)
		require.Equal(t, "urn:osa:osa-dev:rec:rec-1@1", reread.RecordSRN.String())
	})

	t.Run("update of missing deposition is not found", func(t *testing.T) {
		ghost := dep
		ghost.SRN = srn.New("osa-dev", srn.TypeDeposition, "ghost")
		require.ErrorIs(t, s.Depositions().UpdateDeposition(ctx, ghost), store.ErrNotFound)
	})

	t.Run("list by owner", func(t *testing.T) {
		all, err := s.Depositions().ListDepositions(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)

		mine, err := s.Depositions().ListDepositionsByOwner(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)

		none, err := s.Depositions().ListDepositionsByOwner(ctx, "someone-else")
		require.NoError(t, err)
		require.Empty(t, none)
	})
}

func TestRecordsRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	recs := []domain.Record{
		{
			SRN:         srn.New("osa-dev", srn.TypeRecord, "rec-zif").WithVersion("1"),
			Metadata:    map[string]any{"title": "ZIF-8 crystal structure", "keywords": []any{"MOF"}},
			PublishedAt: published,
		},
		{
			SRN:         srn.New("osa-dev", srn.TypeRecord, "rec-perov").WithVersion("1"),
			Metadata:    map[string]any{"title": "Perovskite thin film"},
			PublishedAt: published.Add(time.Hour),
		},
	}
	for _, rec := range recs {
		require.NoError(t, s.Records().CreateRecord(ctx, rec))
	}

	t.Run("get", func(t *testing.T) {
		got, err := s.Records().GetRecord(ctx, "urn:osa:osa-dev:rec:rec-zif@1")
		require.NoError(t, err)
		require.Equal(t, "ZIF-8 crystal structure", got.Metadata["title"])

		_, err = s.Records().GetRecord(ctx, "urn:osa:osa-dev:rec:nope@1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("search matches metadata case-insensitively", func(t *testing.T) {
		hits, total, err := s.Records().SearchRecords(ctx, "zif-8", 0, 10)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Len(t, hits, 1)
		require.Equal(t, "rec-zif", hits[0].SRN.Local)
	})

	t.Run("search pagination", func(t *testing.T) {
		page, total, err := s.Records().SearchRecords(ctx, "", 0, 1)
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, page, 1)
		// newest first
		require.Equal(t, "rec-perov", page[0].SRN.Local)

		rest, _, err := s.Records().SearchRecords(ctx, "", 1, 1)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		require.Equal(t, "rec-zif", rest[0].SRN.Local)
	})
}

func TestConventionsRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Conventions().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	conv := seedConvention(t, s, "crystallography")

	t.Run("round trip keeps requirements and hooks", func(t *testing.T) {
		got, err := s.Conventions().GetConvention(ctx, conv.SRN.String())
		require.NoError(t, err)
		require.Equal(t, conv.Title, got.Title)
		require.Equal(t, conv.FileRequirements, got.FileRequirements)
		require.Len(t, got.Hooks, 1)
		require.Equal(t, "ghcr.io/osa/cif-validate", got.Hooks[0].Image)
	})

	t.Run("duplicate srn conflicts", func(t *testing.T) {
		err := s.Conventions().CreateConvention(ctx, conv)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("list and search", func(t *testing.T) {
		items, err := s.Conventions().ListConventions(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)

		hits, total, err := s.Conventions().SearchConventions(ctx, "crystallography", 0, 10)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Len(t, hits, 1)

		none, total, err := s.Conventions().SearchConventions(ctx, "astronomy", 0, 10)
		require.NoError(t, err)
		require.Zero(t, total)
		require.Empty(t, none)
	})
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	u := seedUser(t, s, "01jd2qz7v8dddddddddddddddd")

	t.Run("commit on success", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
				ID: "rt-tx-1", UserID: u.ID, FamilyID: "fam-tx", TokenHash: "hash-tx-1",
				ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
			})
		})
		require.NoError(t, err)

		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-tx-1")
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		sentinel := store.ErrAlreadyExists
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
				ID: "rt-tx-2", UserID: u.ID, FamilyID: "fam-tx", TokenHash: "hash-tx-2",
				ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-tx-2")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
