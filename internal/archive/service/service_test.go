package service

import (
	"context"
	"testing"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/internal/archive/store/drivers/sqlite"
	"github.com/open-science-archive/osa-go/pkg/idx"
	"github.com/open-science-archive/osa-go/pkg/srn"
	"github.com/stretchr/testify/require"
)

const testNodeID = "osa-test"

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, st store.Store, displayName string, roles ...string) domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := domain.User{
		ID:          idx.New().String(),
		Provider:    "orcid",
		ExternalID:  idx.New().Lower(),
		DisplayName: displayName,
		Roles:       roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func createConvention(t *testing.T, st store.Store, reqs domain.FileRequirements) domain.Convention {
	t.Helper()
	c := domain.Convention{
		SRN:              srn.New(testNodeID, srn.TypeConvention, idx.New().Lower()).WithVersion("1.0.0"),
		Title:            "Test Deposits",
		Description:      "Fixture convention",
		SchemaSRN:        srn.New(testNodeID, srn.TypeSchema, "test-metadata").WithVersion("1.0.0"),
		FileRequirements: reqs,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, st.Conventions().CreateConvention(context.Background(), c))
	return c
}

func requireDomainErr(t *testing.T, err error, kind domain.Kind, code string) {
	t.Helper()
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, kind, derr.Kind)
	require.Equal(t, code, derr.Code)
}
