package store

import (
	"context"
	"errors"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the mock archive. Concrete
// drivers (sqlite) implement it. Sub-repositories keep concerns tidy and let
// transactional call sites reuse the same query methods.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Depositions() Depositions
	Records() Records
	Conventions() Conventions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back on error. Use it for multi-step writes such as refresh rotation.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByProviderIdentity looks a user up by (provider, external_id),
	// the identity the login flow receives from the IdP.
	GetUserByProviderIdentity(ctx context.Context, provider, externalID string) (domain.User, error)

	// IsEmpty reports whether any users exist; used to decide seeding.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token record by its fingerprint,
	// revoked or not. Rotation reuse detection needs to see revoked rows.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked on a single token.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeTokenFamily revokes every token in a rotation family.
	RevokeTokenFamily(ctx context.Context, familyID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type Depositions interface {
	CreateDeposition(ctx context.Context, d domain.Deposition) error

	// GetDeposition loads the aggregate including file metadata, without
	// file contents.
	GetDeposition(ctx context.Context, srn string) (domain.Deposition, error)

	// UpdateDeposition persists status, metadata, record link and
	// updated_at for an existing deposition.
	UpdateDeposition(ctx context.Context, d domain.Deposition) error

	ListDepositions(ctx context.Context) ([]domain.Deposition, error)
	ListDepositionsByOwner(ctx context.Context, ownerID string) ([]domain.Deposition, error)

	// PutFile stores one file's metadata and content, replacing any
	// earlier upload under the same name.
	PutFile(ctx context.Context, srn string, f domain.DepositionFile, content []byte) error

	GetFileContent(ctx context.Context, srn, filename string) ([]byte, error)
	DeleteFile(ctx context.Context, srn, filename string) error
}

type Records interface {
	CreateRecord(ctx context.Context, rec domain.Record) error
	GetRecord(ctx context.Context, srn string) (domain.Record, error)

	// GetLatestRecord resolves an unversioned record SRN to its newest
	// published version.
	GetLatestRecord(ctx context.Context, unversioned string) (domain.Record, error)

	// SearchRecords matches q case-insensitively against the metadata
	// document and returns one page plus the total match count. Empty q
	// matches everything.
	SearchRecords(ctx context.Context, q string, offset, limit int) ([]domain.Record, int, error)
}

type Conventions interface {
	CreateConvention(ctx context.Context, c domain.Convention) error
	GetConvention(ctx context.Context, srn string) (domain.Convention, error)
	ListConventions(ctx context.Context) ([]domain.Convention, error)
	SearchConventions(ctx context.Context, q string, offset, limit int) ([]domain.Convention, int, error)
	IsEmpty(ctx context.Context) (bool, error)
}
