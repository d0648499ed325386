package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sidecrew/internal/config"
	"sidecrew/internal/domain/account"
	"sidecrew/internal/pkg/jwt"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPendingApproval        = errors.New("account is pending approval")
	ErrAccountRejected        = errors.New("account has been rejected")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
	ErrInternal               = errors.New("internal error")
)

const minPasswordLen = 8

type RegisterInput struct {
	Kind     account.Kind
	Name     string
	Email    string
	Password string
	Phone    string

	CompanyName string

	Address    string
	AgencyName string
	Latitude   *float64
	Longitude  *float64

	Skills    string
	Available *bool
}

type LoginInput struct {
	Kind     account.Kind
	Email    string
	Password string
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service struct {
	accounts repository.AccountRepository
	jwt      jwt.Service
	admin    config.AdminConfig
	log      *logger.Logger
}

func NewService(accounts repository.AccountRepository, jwtSvc jwt.Service, admin config.AdminConfig, log *logger.Logger) *Service {
	return &Service{
		accounts: accounts,
		jwt:      jwtSvc,
		admin:    admin,
		log:      logger.OrNop(log).With("component", "auth"),
	}
}

// Register creates a pending account. It issues no tokens: an administrator
// has to approve the account before it can log in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (account.Account, error) {
	if !in.Kind.Stored() {
		return account.Account{}, ErrInvalidInput
	}
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || !isValidPassword(in.Password) {
		return account.Account{}, ErrInvalidInput
	}
	if in.Kind == account.KindAgent {
		if in.Latitude == nil || in.Longitude == nil {
			return account.Account{}, ErrInvalidInput
		}
		if *in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180 {
			return account.Account{}, ErrInvalidInput
		}
	}

	if _, err := s.accounts.FindByEmail(ctx, in.Kind, email); err == nil {
		return account.Account{}, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("lookup account by email failed", "kind", in.Kind, "error", err)
		return account.Account{}, ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return account.Account{}, ErrInternal
	}

	a := account.Account{
		ID:           uuid.New(),
		Kind:         in.Kind,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		Status:       account.StatusPending,
		CompanyName:  strings.TrimSpace(in.CompanyName),
		Address:      strings.TrimSpace(in.Address),
		AgencyName:   strings.TrimSpace(in.AgencyName),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Skills:       strings.TrimSpace(in.Skills),
		Available:    true,
	}
	if in.Available != nil {
		a.Available = *in.Available
	}

	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return account.Account{}, ErrEmailAlreadyRegistered
		}
		s.log.Error("create account failed", "kind", in.Kind, "error", err)
		return account.Account{}, ErrInternal
	}

	created, err := s.accounts.FindByID(ctx, a.Kind, a.ID)
	if err != nil {
		return account.Account{}, ErrInternal
	}
	s.log.Info("account registered", "kind", a.Kind, "account_id", a.ID)
	return sanitize(created), nil
}

// Login checks credentials and issues a token pair. Only approved accounts
// may log in. The admin authenticates against configuration.
func (s *Service) Login(ctx context.Context, in LoginInput) (account.Account, Tokens, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return account.Account{}, Tokens{}, ErrInvalidCredentials
	}

	if in.Kind == account.KindAdmin {
		return s.loginAdmin(email, in.Password)
	}
	if !in.Kind.Stored() {
		return account.Account{}, Tokens{}, ErrInvalidCredentials
	}

	a, err := s.accounts.FindByEmail(ctx, in.Kind, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return account.Account{}, Tokens{}, ErrInvalidCredentials
		}
		s.log.Error("lookup account by email failed", "kind", in.Kind, "error", err)
		return account.Account{}, Tokens{}, ErrInternal
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.Password)); err != nil {
		return account.Account{}, Tokens{}, ErrInvalidCredentials
	}
	switch a.Status {
	case account.StatusPending:
		return account.Account{}, Tokens{}, ErrPendingApproval
	case account.StatusRejected:
		return account.Account{}, Tokens{}, ErrAccountRejected
	}

	tokens, err := s.issue(a.Actor())
	if err != nil {
		return account.Account{}, Tokens{}, err
	}
	return sanitize(a), tokens, nil
}

func (s *Service) loginAdmin(email, password string) (account.Account, Tokens, error) {
	if s.admin.Email == "" || s.admin.PasswordHash == "" || email != normalizeEmail(s.admin.Email) {
		return account.Account{}, Tokens{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)); err != nil {
		return account.Account{}, Tokens{}, ErrInvalidCredentials
	}
	a := account.Account{
		ID:     AdminID(s.admin.Email),
		Kind:   account.KindAdmin,
		Name:   "Administrator",
		Email:  email,
		Status: account.StatusApproved,
	}
	tokens, err := s.issue(a.Actor())
	if err != nil {
		return account.Account{}, Tokens{}, err
	}
	s.log.Info("admin logged in")
	return a, tokens, nil
}

// Refresh trades a refresh token for a new pair, provided the account is
// still approved.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Tokens{}, ErrInvalidToken
	}
	claims, err := s.jwt.ValidateToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Tokens{}, ErrTokenExpired
		}
		return Tokens{}, ErrInvalidToken
	}
	if !s.jwt.IsRefreshToken(claims) {
		return Tokens{}, ErrInvalidToken
	}
	actor, err := actorFromClaims(claims)
	if err != nil {
		return Tokens{}, err
	}

	if actor.Kind == account.KindAdmin {
		if s.admin.Email == "" || actor.ID != AdminID(s.admin.Email) {
			return Tokens{}, ErrInvalidToken
		}
		return s.issue(actor)
	}

	a, err := s.accounts.FindByID(ctx, actor.Kind, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Tokens{}, ErrInvalidToken
		}
		return Tokens{}, ErrInternal
	}
	if a.Status != account.StatusApproved {
		return Tokens{}, ErrInvalidToken
	}
	return s.issue(actor)
}

// Authenticate resolves an access token to the actor it was issued to.
func (s *Service) Authenticate(accessToken string) (account.Actor, error) {
	claims, err := s.jwt.ValidateToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return account.Actor{}, ErrTokenExpired
		}
		return account.Actor{}, ErrInvalidToken
	}
	if claims.TokenType != jwt.TokenTypeAccess || s.jwt.IsRefreshToken(claims) {
		return account.Actor{}, ErrInvalidToken
	}
	return actorFromClaims(claims)
}

func (s *Service) issue(actor account.Actor) (Tokens, error) {
	access, err := s.jwt.GenerateAccessToken(string(actor.Kind), actor.ID)
	if err != nil {
		return Tokens{}, ErrInternal
	}
	refresh, err := s.jwt.GenerateRefreshToken(string(actor.Kind), actor.ID)
	if err != nil {
		return Tokens{}, ErrInternal
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// AdminID is the stable actor id of the configured administrator.
func AdminID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("sidecrew:admin:"+normalizeEmail(email)))
}

func actorFromClaims(c jwt.Claims) (account.Actor, error) {
	kind, err := account.ParseKind(c.Role)
	if err != nil || c.ActorID == uuid.Nil {
		return account.Actor{}, ErrInvalidToken
	}
	return account.Actor{Kind: kind, ID: c.ActorID}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidPassword(pw string) bool {
	return len(strings.TrimSpace(pw)) >= minPasswordLen
}

func sanitize(a account.Account) account.Account {
	a.PasswordHash = ""
	return a
}
