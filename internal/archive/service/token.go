package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/cryptox"
	"github.com/open-science-archive/osa-go/pkg/idx"
	"github.com/open-science-archive/osa-go/pkg/jwtx"
	"github.com/open-science-archive/osa-go/pkg/slogx"
)

var (
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
	ErrFamilyRevoked  = errors.New("token_family_revoked")
	ErrRefreshExpired = errors.New("refresh_token_expired")
	ErrUserNotFound   = errors.New("user_not_found")
)

// TokenService issues and rotates the mock archive's bearer credentials:
// short-lived EdDSA access tokens plus opaque refresh tokens stored by
// fingerprint only. Refresh tokens are grouped into families; rotating one
// mints a successor in the same family, and presenting an already-rotated
// member burns the whole family.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueForUser starts a fresh session for u: a new access token and the
// first refresh token of a brand-new family.
func (s *TokenService) IssueForUser(ctx context.Context, u domain.User) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signAccess(u, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		FamilyID:  idx.New().String(),
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// successor in the same family is minted alongside a new access token.
//
// Presenting an already-revoked token is treated as replay of a stolen
// credential and revokes the entire family, forcing a new login.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if rt.Revoked {
		l.Warn("revoked refresh token replayed, burning family",
			slog.String("user_id", rt.UserID),
			slog.String("family_id", rt.FamilyID),
		)
		if err := s.Store.RefreshTokens().RevokeTokenFamily(ctx, rt.FamilyID); err != nil {
			return nil, err
		}
		return nil, ErrFamilyRevoked
	}
	if now.After(rt.ExpiresAt) {
		return nil, ErrRefreshExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	accessToken, err := s.signAccess(u, now)
	if err != nil {
		return nil, err
	}

	newOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	newRT := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		FamilyID:  rt.FamilyID,
		TokenHash: cryptox.FingerprintToken(newOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Revoke-then-mint must be atomic or a crash window leaves the client
	// with no valid member of the family.
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	}); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// Revoke ends the session a refresh token belongs to by revoking its whole
// family. Revoking an unknown token is a no-op so logout never fails.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Store.RefreshTokens().RevokeTokenFamily(ctx, rt.FamilyID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("session logged out",
		slog.String("user_id", rt.UserID),
		slog.String("family_id", rt.FamilyID),
	)
	return nil
}

func (s *TokenService) signAccess(u domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, jwtx.Identity{
		Provider:    u.Provider,
		ExternalID:  u.ExternalID,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
	}, s.Issuer, s.AccessTTL, now)
	return s.KeyManager.Signer.Sign(claims)
}
