// Package anonymous issues guest sessions. A guest is identified by a random
// id that keys the guest's local cart and recently viewed list.
package anonymous

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/logging"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
	"github.com/xRWDev/ReTech/internal/service/session"
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	tokens    *session.Manager
	logger    *logrus.Entry
	accessTTL time.Duration
}

// Session is what a guest receives from Issue.
type Session struct {
	AccessToken string `json:"access_token"`
	GuestID     string `json:"anonymous_id"`
	ExpiresIn   int    `json:"expires_in"`
}

func New(repo tokenrepo.Repository, ttl time.Duration, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		tokens:    session.NewManager(repo),
		logger:    logger,
		accessTTL: ttl,
	}
}

func (s *Service) Issue(ctx context.Context) (Session, error) {
	guestID := uuid.NewString()
	token, err := s.tokens.Issue(ctx, session.Owner{GuestID: guestID}, tokenrepo.KindAnonymous, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	s.logger.WithField("guest_id", guestID).Debug("guest session issued")
	return Session{AccessToken: token, GuestID: guestID, ExpiresIn: s.AccessTTLSeconds()}, nil
}

// LookupByToken returns the guest id bound to token.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	meta, ok := s.tokens.Lookup(ctx, token, tokenrepo.KindAnonymous)
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.Owner.GuestID, nil
}

// Revoke forgets a guest token, used once its cart has been merged.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
