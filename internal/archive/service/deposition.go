package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/idx"
	"github.com/open-science-archive/osa-go/pkg/srn"
)

// DepositionService drives the draft dataset lifecycle: create, metadata and
// file edits while in DRAFT, then submission into validation. File content
// lives in the store next to the aggregate.
type DepositionService struct {
	Store  store.Store
	NodeID string
}

// Create opens a new draft under the given convention.
func (s *DepositionService) Create(
	ctx context.Context,
	conventionSRN srn.SRN,
	ownerID string,
) (domain.Deposition, error) {
	if _, err := s.convention(ctx, conventionSRN); err != nil {
		return domain.Deposition{}, err
	}

	now := time.Now().UTC()
	dep := domain.Deposition{
		SRN:           srn.New(s.NodeID, srn.TypeDeposition, idx.New().Lower()),
		ConventionSRN: conventionSRN,
		OwnerID:       ownerID,
		Status:        domain.StatusDraft,
		Metadata:      map[string]any{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Store.Depositions().CreateDeposition(ctx, dep); err != nil {
		return domain.Deposition{}, err
	}
	return dep, nil
}

// Get fetches one deposition by SRN.
func (s *DepositionService) Get(ctx context.Context, srnStr string) (domain.Deposition, error) {
	dep, err := s.Store.Depositions().GetDeposition(ctx, srnStr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Deposition{}, domain.NotFoundError("not_found",
				fmt.Sprintf("deposition not found: %s", srnStr))
		}
		return domain.Deposition{}, err
	}
	return dep, nil
}

// List returns the depositions visible to the caller. Curators see the whole
// node; everyone else sees only their own.
func (s *DepositionService) List(ctx context.Context, caller domain.Caller) ([]domain.Deposition, int, error) {
	var (
		items []domain.Deposition
		err   error
	)
	if caller.CanCurate() {
		items, err = s.Store.Depositions().ListDepositions(ctx)
	} else {
		items, err = s.Store.Depositions().ListDepositionsByOwner(ctx, caller.UserID)
	}
	if err != nil {
		return nil, 0, err
	}
	return items, len(items), nil
}

// UpdateMetadata replaces the draft's metadata document wholesale.
func (s *DepositionService) UpdateMetadata(
	ctx context.Context,
	srnStr string,
	metadata map[string]any,
) (domain.Deposition, error) {
	dep, err := s.Get(ctx, srnStr)
	if err != nil {
		return domain.Deposition{}, err
	}
	if err := dep.UpdateMetadata(metadata, time.Now().UTC()); err != nil {
		return domain.Deposition{}, err
	}
	if err := s.Store.Depositions().UpdateDeposition(ctx, dep); err != nil {
		return domain.Deposition{}, err
	}
	return dep, nil
}

// UploadFile validates content against the convention's file requirements
// and stores it. Re-uploading a filename replaces the previous content and
// descriptor.
func (s *DepositionService) UploadFile(
	ctx context.Context,
	srnStr string,
	filename string,
	content []byte,
) (domain.DepositionFile, error) {
	dep, err := s.Get(ctx, srnStr)
	if err != nil {
		return domain.DepositionFile{}, err
	}
	conv, err := s.convention(ctx, dep.ConventionSRN)
	if err != nil {
		return domain.DepositionFile{}, err
	}

	// Replacing an existing file does not count against the limit.
	current := len(dep.Files)
	if _, err := dep.File(filename); err == nil {
		current--
	}
	if err := conv.FileRequirements.CheckUpload(filename, int64(len(content)), current); err != nil {
		return domain.DepositionFile{}, err
	}

	now := time.Now().UTC()
	f := domain.DepositionFile{
		Name:        filename,
		Size:        int64(len(content)),
		Checksum:    checksumFor(content),
		ContentType: contentTypeFor(filename),
		UploadedAt:  now,
	}

	// State check before any write so a non-draft deposition never gains
	// orphaned content.
	if err := dep.AddFile(f, now); err != nil {
		return domain.DepositionFile{}, err
	}

	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Depositions().PutFile(ctx, srnStr, f, content); err != nil {
			return err
		}
		return tx.Depositions().UpdateDeposition(ctx, dep)
	}); err != nil {
		return domain.DepositionFile{}, err
	}
	return f, nil
}

// DownloadFile returns a stored file's content and descriptor.
func (s *DepositionService) DownloadFile(
	ctx context.Context,
	srnStr string,
	filename string,
) ([]byte, domain.DepositionFile, error) {
	dep, err := s.Get(ctx, srnStr)
	if err != nil {
		return nil, domain.DepositionFile{}, err
	}
	meta, err := dep.File(filename)
	if err != nil {
		return nil, domain.DepositionFile{}, err
	}
	content, err := s.Store.Depositions().GetFileContent(ctx, srnStr, filename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.DepositionFile{}, domain.NotFoundError("not_found",
				fmt.Sprintf("file %q not found in deposition", filename))
		}
		return nil, domain.DepositionFile{}, err
	}
	return content, meta, nil
}

// DeleteFile removes a file from the draft.
func (s *DepositionService) DeleteFile(ctx context.Context, srnStr, filename string) error {
	dep, err := s.Get(ctx, srnStr)
	if err != nil {
		return err
	}
	if err := dep.RemoveFile(filename, time.Now().UTC()); err != nil {
		return err
	}
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Depositions().DeleteFile(ctx, srnStr, filename); err != nil {
			return err
		}
		return tx.Depositions().UpdateDeposition(ctx, dep)
	})
}

// Submit moves the draft into validation once the convention's minimum file
// count is met.
func (s *DepositionService) Submit(ctx context.Context, srnStr string) (domain.Deposition, error) {
	dep, err := s.Get(ctx, srnStr)
	if err != nil {
		return domain.Deposition{}, err
	}
	conv, err := s.convention(ctx, dep.ConventionSRN)
	if err != nil {
		return domain.Deposition{}, err
	}
	if err := conv.FileRequirements.CheckSubmit(len(dep.Files)); err != nil {
		return domain.Deposition{}, err
	}
	if err := dep.Submit(time.Now().UTC()); err != nil {
		return domain.Deposition{}, err
	}
	if err := s.Store.Depositions().UpdateDeposition(ctx, dep); err != nil {
		return domain.Deposition{}, err
	}
	return dep, nil
}

// ReturnToDraft reverses a submit, e.g. after validation rejects the
// deposition. The mock exposes no route for this; validation tooling and the
// seed use it directly.
func (s *DepositionService) ReturnToDraft(ctx context.Context, srnStr string) (domain.Deposition, error) {
	dep, err := s.Get(ctx, srnStr)
	if err != nil {
		return domain.Deposition{}, err
	}
	if err := dep.ReturnToDraft(time.Now().UTC()); err != nil {
		return domain.Deposition{}, err
	}
	if err := s.Store.Depositions().UpdateDeposition(ctx, dep); err != nil {
		return domain.Deposition{}, err
	}
	return dep, nil
}

func (s *DepositionService) convention(ctx context.Context, conventionSRN srn.SRN) (domain.Convention, error) {
	conv, err := s.Store.Conventions().GetConvention(ctx, conventionSRN.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Convention{}, domain.NotFoundError("not_found",
				fmt.Sprintf("convention not found: %s", conventionSRN))
		}
		return domain.Convention{}, err
	}
	return conv, nil
}

// checksumFor fingerprints file content the way the archive reports it.
func checksumFor(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// contentTypeFor guesses a MIME type from the filename extension.
func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
