package memory

import (
	"context"
	"time"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
)

type tokenRepo struct {
	s *Store
}

func (r *tokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	defer r.s.lock()()

	token.ID = r.s.d.nextID()
	token.CreatedAt = time.Now()
	r.s.d.tokens[token.ID] = *token
	return nil
}

func (r *tokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	defer r.s.lock()()

	for _, t := range r.s.d.tokens {
		if t.TokenHash == tokenHash {
			token := t
			return &token, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *tokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	defer r.s.lock()()

	now := time.Now()
	for id, t := range r.s.d.tokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.s.d.tokens[id] = t
		}
	}
	return nil
}

func (r *tokenRepo) RevokeAllByAccountID(ctx context.Context, accountID uint) error {
	defer r.s.lock()()

	now := time.Now()
	for id, t := range r.s.d.tokens {
		if t.AccountID == accountID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.s.d.tokens[id] = t
		}
	}
	return nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context) error {
	defer r.s.lock()()

	now := time.Now()
	for id, t := range r.s.d.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.s.d.tokens, id)
		}
	}
	return nil
}
