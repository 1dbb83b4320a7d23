package domain

import (
	"fmt"
	"time"

	"github.com/open-science-archive/osa-go/pkg/srn"
)

// Deposition statuses. Stored and served as the uppercase string.
type DepositionStatus string

const (
	StatusDraft        DepositionStatus = "DRAFT"
	StatusInValidation DepositionStatus = "IN_VALIDATION"
	StatusPublished    DepositionStatus = "PUBLISHED"
)

// DepositionFile describes one uploaded file. Content lives in the store,
// keyed by deposition SRN and filename; the aggregate holds metadata only.
type DepositionFile struct {
	Name        string
	Size        int64
	Checksum    string
	ContentType string
	UploadedAt  time.Time
}

// Deposition is the dataset-in-progress aggregate. Metadata and file
// mutations are only legal in DRAFT; submit hands the deposition to
// validation. RecordSRN is set once publication mints an archive record.
type Deposition struct {
	SRN           srn.SRN
	ConventionSRN srn.SRN
	OwnerID       string
	Status        DepositionStatus
	Metadata      map[string]any
	Files         []DepositionFile
	RecordSRN     srn.SRN
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (d *Deposition) requireDraft() *Error {
	if d.Status != StatusDraft {
		return InvalidStateError("invalid_state",
			fmt.Sprintf("operation not allowed in %s state", d.Status))
	}
	return nil
}

// UpdateMetadata replaces the draft metadata wholesale. The caller sends the
// complete document, not a patch.
func (d *Deposition) UpdateMetadata(metadata map[string]any, now time.Time) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	d.Metadata = metadata
	d.UpdatedAt = now
	return nil
}

// AddFile records an uploaded file. Re-uploading an existing filename
// replaces the earlier entry.
func (d *Deposition) AddFile(f DepositionFile, now time.Time) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	for i, existing := range d.Files {
		if existing.Name == f.Name {
			d.Files[i] = f
			d.UpdatedAt = now
			return nil
		}
	}
	d.Files = append(d.Files, f)
	d.UpdatedAt = now
	return nil
}

// File returns the named file's metadata.
func (d *Deposition) File(filename string) (DepositionFile, error) {
	for _, f := range d.Files {
		if f.Name == filename {
			return f, nil
		}
	}
	return DepositionFile{}, NotFoundError("not_found",
		fmt.Sprintf("file %q not found in deposition", filename))
}

// RemoveFile drops the named file from the aggregate.
func (d *Deposition) RemoveFile(filename string, now time.Time) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	for i, f := range d.Files {
		if f.Name == filename {
			d.Files = append(d.Files[:i], d.Files[i+1:]...)
			d.UpdatedAt = now
			return nil
		}
	}
	return NotFoundError("not_found",
		fmt.Sprintf("file %q not found in deposition", filename))
}

// Submit moves a draft into validation.
func (d *Deposition) Submit(now time.Time) error {
	if err := d.requireDraft(); err != nil {
		return err
	}
	d.Status = StatusInValidation
	d.UpdatedAt = now
	return nil
}

// ReturnToDraft reverses a submit, e.g. after validation failure.
func (d *Deposition) ReturnToDraft(now time.Time) error {
	if d.Status != StatusInValidation {
		return InvalidStateError("invalid_state",
			fmt.Sprintf("can only return to draft from IN_VALIDATION, currently %s", d.Status))
	}
	d.Status = StatusDraft
	d.UpdatedAt = now
	return nil
}

// Publish marks the deposition published and links the minted record.
func (d *Deposition) Publish(recordSRN srn.SRN, now time.Time) error {
	if d.Status != StatusInValidation {
		return InvalidStateError("invalid_state",
			fmt.Sprintf("can only publish from IN_VALIDATION, currently %s", d.Status))
	}
	d.Status = StatusPublished
	d.RecordSRN = recordSRN
	d.UpdatedAt = now
	return nil
}
