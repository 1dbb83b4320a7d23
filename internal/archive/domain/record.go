package domain

import (
	"time"

	"github.com/open-science-archive/osa-go/pkg/srn"
)

// Record is a published, immutable archive entry minted from a deposition.
type Record struct {
	SRN           srn.SRN
	DepositionSRN srn.SRN
	Metadata      map[string]any
	PublishedAt   time.Time
}
