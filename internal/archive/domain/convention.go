package domain

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/open-science-archive/osa-go/pkg/srn"
)

// FileRequirements constrains the files a deposition may carry under a
// convention. AcceptedTypes holds lowercase extensions including the dot;
// empty accepts anything. A zero MaxFileSize or MaxCount means unlimited.
type FileRequirements struct {
	AcceptedTypes []string
	MaxFileSize   int64
	MinCount      int
	MaxCount      int
}

// HookDefinition references a post-submission processing hook by OCI image.
// The mock stores and serves hooks verbatim; it never runs them.
type HookDefinition struct {
	Image  string
	Digest string
	Runner string
	Config map[string]any
}

// Convention is a community agreement on how a class of datasets is
// deposited: which schema the metadata follows and what files are expected.
type Convention struct {
	SRN              srn.SRN
	Title            string
	Description      string
	SchemaSRN        srn.SRN
	FileRequirements FileRequirements
	Hooks            []HookDefinition
	CreatedAt        time.Time
}

// CheckUpload validates one prospective file against the requirements.
// current is the number of files already on the deposition.
func (r FileRequirements) CheckUpload(filename string, size int64, current int) *Error {
	ext := strings.ToLower(path.Ext(filename))
	if len(r.AcceptedTypes) > 0 && !contains(r.AcceptedTypes, ext) {
		return ValidationError("file_type_not_accepted",
			fmt.Sprintf("file type %q not accepted, allowed: %s", ext, strings.Join(r.AcceptedTypes, ", ")))
	}
	if r.MaxFileSize > 0 && size > r.MaxFileSize {
		return ValidationError("file_too_large",
			fmt.Sprintf("file size %d exceeds maximum %d", size, r.MaxFileSize))
	}
	if r.MaxCount > 0 && current >= r.MaxCount {
		return ValidationError("too_many_files",
			fmt.Sprintf("maximum %d files allowed, already have %d", r.MaxCount, current))
	}
	return nil
}

// CheckSubmit validates the deposition's file count ahead of submission.
func (r FileRequirements) CheckSubmit(fileCount int) *Error {
	if fileCount < r.MinCount {
		return ValidationError("too_few_files",
			fmt.Sprintf("minimum %d file(s) required, have %d", r.MinCount, fileCount))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
