package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
	custrepo "github.com/xRWDev/ReTech/internal/repository/customer"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
	"github.com/xRWDev/ReTech/internal/service/session"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// Service handles customer signup/login flows.
type Service struct {
	repo        custrepo.Repository
	tokens      *session.Manager
	logger      *logrus.Entry
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, tokens tokenrepo.Repository, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:        repo,
		tokens:      session.NewManager(tokens),
		logger:      logger,
		accessTTL:   48 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// Tokens is the pair issued on login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Signup registers a new customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := normalizeEmail(in.Email)
	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("email", "required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "invalid address")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		verr.Add("password", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", c.ID).Info("customer signed up")
	return c, nil
}

// Login validates credentials and returns issued tokens plus the customer.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, Tokens, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, ErrInvalidCredentials
		}
		return nil, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, Tokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issuePair(ctx, c.ID)
	if err != nil {
		return nil, Tokens{}, err
	}
	return c, tokens, nil
}

// Refresh trades a refresh token for a new pair. Each refresh token works once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	meta, ok := s.tokens.Consume(ctx, refreshToken, tokenrepo.KindRefresh)
	if !ok {
		return Tokens{}, ErrInvalidToken
	}
	return s.issuePair(ctx, meta.Owner.CustomerID)
}

// Logout forgets one access token. The matching refresh token stays valid
// until it expires or is used.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	return s.tokens.Revoke(ctx, accessToken)
}

// RevokeSessions signs the customer with the given email out everywhere.
func (s *Service) RevokeSessions(ctx context.Context, email string) (int64, error) {
	c, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return 0, err
	}
	n, err := s.tokens.RevokeCustomer(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": c.ID, "revoked": n}).Info("sessions revoked")
	return n, nil
}

// PruneTokens deletes expired customer and guest tokens.
func (s *Service) PruneTokens(ctx context.Context) (int64, error) {
	return s.tokens.Prune(ctx)
}

func (s *Service) issuePair(ctx context.Context, customerID string) (Tokens, error) {
	owner := session.Owner{CustomerID: customerID}
	access, err := s.tokens.Issue(ctx, owner, tokenrepo.KindAccess, s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.tokens.Issue(ctx, owner, tokenrepo.KindRefresh, s.refreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.AccessTTLSeconds()}, nil
}

// LookupByToken resolves a valid access token to the caller's identity.
func (s *Service) LookupByToken(ctx context.Context, token string) (domain.Identity, error) {
	meta, ok := s.tokens.Lookup(ctx, token, tokenrepo.KindAccess)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}
	admin, err := s.IsAdmin(ctx, meta.Owner.CustomerID)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: meta.Owner.CustomerID, IsAdmin: admin}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// ProfileInput is the part of a customer the customer may edit.
type ProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateProfile replaces the customer's name and phone. The name must not be blank.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.Customer, error) {
	name := strings.TrimSpace(in.Name)
	verr := &domain.ValidationError{}
	if name == "" {
		verr.Add("name", "required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	c, err := s.repo.UpdateProfile(ctx, userID, name, strings.TrimSpace(in.Phone))
	if err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", c.ID).Info("profile updated")
	return c, nil
}

func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.repo.HasRole(ctx, userID, domain.RoleAdmin)
}

// GrantRole gives the customer with the given email a role.
func (s *Service) GrantRole(ctx context.Context, email string, role domain.Role) (*domain.Customer, error) {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	c, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := s.repo.GrantRole(ctx, c.ID, role); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": c.ID, "role": role}).Info("role granted")
	return c, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("must contain an uppercase letter, a lowercase letter and a number")
	}
	return nil
}
