package service

import (
	"context"
	"strings"
	"testing"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/srn"
	"github.com/stretchr/testify/require"
)

func newDepositionFixture(t *testing.T) (*DepositionService, store.Store, domain.User, domain.Convention) {
	t.Helper()
	st := newTestStore(t)
	u := createUser(t, st, "Josiah Carberry", domain.RoleDepositor)
	conv := createConvention(t, st, domain.FileRequirements{
		AcceptedTypes: []string{".cif", ".csv"},
		MaxFileSize:   1 << 10,
		MinCount:      1,
		MaxCount:      2,
	})
	return &DepositionService{Store: st, NodeID: testNodeID}, st, u, conv
}

func TestDepositionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, u, conv := newDepositionFixture(t)

	dep, err := svc.Create(ctx, conv.SRN, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, dep.Status)
	require.Equal(t, srn.TypeDeposition, dep.SRN.Type)
	require.Equal(t, u.ID, dep.OwnerID)

	srnStr := dep.SRN.String()

	_, err = svc.UpdateMetadata(ctx, srnStr, map[string]any{"title": "ZIF-8"})
	require.NoError(t, err)

	content := []byte("x,y\n1,2\n")
	f, err := svc.UploadFile(ctx, srnStr, "points.csv", content)
	require.NoError(t, err)
	require.Equal(t, "points.csv", f.Name)
	require.Equal(t, int64(len(content)), f.Size)
	require.True(t, strings.HasPrefix(f.Checksum, "sha256:"))
	require.NotEmpty(t, f.ContentType)

	got, err := svc.Get(ctx, srnStr)
	require.NoError(t, err)
	require.Equal(t, "ZIF-8", got.Metadata["title"])
	require.Len(t, got.Files, 1)

	downloaded, meta, err := svc.DownloadFile(ctx, srnStr, "points.csv")
	require.NoError(t, err)
	require.Equal(t, content, downloaded)
	require.Equal(t, f.Checksum, meta.Checksum)

	dep, err = svc.Submit(ctx, srnStr)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInValidation, dep.Status)

	// no edits once submitted
	_, err = svc.UpdateMetadata(ctx, srnStr, map[string]any{"title": "late edit"})
	requireDomainErr(t, err, domain.KindInvalidState, "invalid_state")
	_, err = svc.UploadFile(ctx, srnStr, "late.csv", []byte("a,b\n"))
	requireDomainErr(t, err, domain.KindInvalidState, "invalid_state")

	// validation failure path hands the draft back
	dep, err = svc.ReturnToDraft(ctx, srnStr)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, dep.Status)
	_, err = svc.UpdateMetadata(ctx, srnStr, map[string]any{"title": "second pass"})
	require.NoError(t, err)
}

func TestUploadFileEnforcesRequirements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, u, conv := newDepositionFixture(t)

	dep, err := svc.Create(ctx, conv.SRN, u.ID)
	require.NoError(t, err)
	srnStr := dep.SRN.String()

	_, err = svc.UploadFile(ctx, srnStr, "notes.docx", []byte("x"))
	requireDomainErr(t, err, domain.KindValidation, "file_type_not_accepted")

	_, err = svc.UploadFile(ctx, srnStr, "big.csv", make([]byte, 2<<10))
	requireDomainErr(t, err, domain.KindValidation, "file_too_large")

	_, err = svc.UploadFile(ctx, srnStr, "a.csv", []byte("a\n"))
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, srnStr, "b.csv", []byte("b\n"))
	require.NoError(t, err)
	_, err = svc.UploadFile(ctx, srnStr, "c.csv", []byte("c\n"))
	requireDomainErr(t, err, domain.KindValidation, "too_many_files")

	// replacing an existing file does not count against the limit
	replaced, err := svc.UploadFile(ctx, srnStr, "a.csv", []byte("a2\n"))
	require.NoError(t, err)
	require.Equal(t, int64(3), replaced.Size)

	got, err := svc.Get(ctx, srnStr)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
}

func TestSubmitRequiresMinimumFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, u, conv := newDepositionFixture(t)

	dep, err := svc.Create(ctx, conv.SRN, u.ID)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dep.SRN.String())
	requireDomainErr(t, err, domain.KindValidation, "too_few_files")
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, u, conv := newDepositionFixture(t)

	dep, err := svc.Create(ctx, conv.SRN, u.ID)
	require.NoError(t, err)
	srnStr := dep.SRN.String()

	_, err = svc.UploadFile(ctx, srnStr, "a.csv", []byte("a\n"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(ctx, srnStr, "a.csv"))

	got, err := svc.Get(ctx, srnStr)
	require.NoError(t, err)
	require.Empty(t, got.Files)

	_, _, err = svc.DownloadFile(ctx, srnStr, "a.csv")
	requireDomainErr(t, err, domain.KindNotFound, "not_found")

	err = svc.DeleteFile(ctx, srnStr, "a.csv")
	requireDomainErr(t, err, domain.KindNotFound, "not_found")
}

func TestListScoping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st, owner, conv := newDepositionFixture(t)
	other := createUser(t, st, "Other Depositor", domain.RoleDepositor)
	curator := createUser(t, st, "Dev Curator", domain.RoleCurator)

	_, err := svc.Create(ctx, conv.SRN, owner.ID)
	require.NoError(t, err)

	mine, total, err := svc.List(ctx, domain.Caller{UserID: owner.ID, Roles: owner.Roles})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, mine, 1)

	theirs, total, err := svc.List(ctx, domain.Caller{UserID: other.ID, Roles: other.Roles})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, theirs)

	all, total, err := svc.List(ctx, domain.Caller{UserID: curator.ID, Roles: curator.Roles})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, all, 1)
}

func TestCreateUnknownConvention(t *testing.T) {
	t.Parallel()
	svc, _, u, _ := newDepositionFixture(t)

	ghost := srn.New(testNodeID, srn.TypeConvention, "missing").WithVersion("1.0.0")
	_, err := svc.Create(context.Background(), ghost, u.ID)
	requireDomainErr(t, err, domain.KindNotFound, "not_found")
}

func TestGetUnknownDeposition(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newDepositionFixture(t)

	_, err := svc.Get(context.Background(), "urn:osa:osa-test:dep:missing")
	requireDomainErr(t, err, domain.KindNotFound, "not_found")
}
