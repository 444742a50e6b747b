package service

import (
	"github.com/xxxsen/postboard/internal/auth"
	"github.com/xxxsen/postboard/internal/pkg/jwt"
)

// TokenService issues identity tokens and turns presented tokens back into identities.
type TokenService struct {
	manager *jwt.Manager
}

func NewTokenService(manager *jwt.Manager) *TokenService {
	return &TokenService{manager: manager}
}

func (s *TokenService) Issue(userID, email string) (string, error) {
	return s.manager.Issue(userID, email)
}

// Verify reports ok=false for any token that is not currently valid.
func (s *TokenService) Verify(token string) (*auth.Identity, bool) {
	claims, ok := s.manager.Verify(token)
	if !ok {
		return nil, false
	}
	return &auth.Identity{UserID: claims.UserID, Email: claims.Email}, true
}
