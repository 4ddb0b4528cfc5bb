package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/repository"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

// SessionManager issues, resolves and revokes the bearer tokens kept in each
// user's token list. Token list writes are read-modify-write of the whole user
// document: concurrent logins or logouts on the same user are last-write-wins.
type SessionManager struct {
	users  repository.Records[models.User]
	signer *utils.TokenSigner
	cache  SessionCache
}

func NewSessionManager(users repository.Records[models.User], signer *utils.TokenSigner, cache SessionCache) *SessionManager {
	if cache == nil {
		cache = NoopSessionCache{}
	}
	return &SessionManager{users: users, signer: signer, cache: cache}
}

// IssueToken signs a token for user, appends it to the stored token list and
// persists the user. user is refreshed with the stored document.
func (s *SessionManager) IssueToken(ctx context.Context, user *models.User) (string, error) {
	token, err := s.signer.Sign(user.ID.Hex())
	if err != nil {
		return "", err
	}

	err = s.update(ctx, user, func(fresh *models.User) {
		fresh.AddToken(token)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResolveToken returns the user owning raw. The token must carry a valid
// signature and still be present in the user's token list.
func (s *SessionManager) ResolveToken(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	userID, err := s.signer.Parse(raw)
	if err != nil {
		slog.DebugContext(ctx, "rejecting session token", "error", err)
		return nil, ErrUnauthenticated
	}

	cached, ok, err := s.cache.Get(ctx, raw)
	if err != nil {
		slog.WarnContext(ctx, "session cache lookup failed", "error", err)
	} else if ok && cached.ID.Hex() == userID && cached.HasToken(raw) {
		return cached, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if !user.HasToken(raw) {
		return nil, ErrUnauthenticated
	}

	if err := s.cache.Set(ctx, raw, user); err != nil {
		slog.WarnContext(ctx, "session cache store failed", "error", err)
	}
	return user, nil
}

// RevokeToken removes raw from the user's token list.
func (s *SessionManager) RevokeToken(ctx context.Context, user *models.User, raw string) error {
	return s.update(ctx, user, func(fresh *models.User) {
		fresh.RemoveToken(raw)
	})
}

// RevokeAllTokens clears the user's token list, ending every session.
func (s *SessionManager) RevokeAllTokens(ctx context.Context, user *models.User) error {
	return s.update(ctx, user, func(fresh *models.User) {
		fresh.Tokens = []models.Token{}
	})
}

// update applies mutate to the stored copy of user and saves it. user may be a
// cached snapshot, so it is never written back as is.
func (s *SessionManager) update(ctx context.Context, user *models.User, mutate func(*models.User)) error {
	fresh, err := s.users.FindByID(ctx, user.ID.Hex())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load user sessions: %w", err)
	}
	mutate(fresh)

	// Evict first too, so a revoked token is not served from the cache
	// while the write is in flight.
	evictSessions(ctx, s.cache, fresh.ID.Hex())
	if err := s.users.Save(ctx, fresh); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("save user sessions: %w", err)
	}
	evictSessions(ctx, s.cache, fresh.ID.Hex())

	*user = *fresh
	return nil
}
