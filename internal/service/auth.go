package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/model"
	"github.com/funillab/insta-dash-server/internal/repository"
	"github.com/funillab/insta-dash-server/internal/util"
)

const (
	AdminSessionTTL  = 24 * time.Hour
	ClientSessionTTL = 7 * 24 * time.Hour
)

// Session is the resolved identity handed to the dashboard after login or
// restore. It is rebuilt from the account row on every resolution, so edits
// an administrator makes show up on the client's next request.
type Session struct {
	ID          string     `json:"id"`
	Role        model.Role `json:"role"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	ClientID    *string    `json:"clientId,omitempty"`
	InstagramID *string    `json:"instagramId,omitempty"`
	LogoURL     *string    `json:"logoUrl,omitempty"`
	CalendarURL *string    `json:"calendarUrl,omitempty"`
	DriveURL    *string    `json:"driveUrl,omitempty"`
	NotionURL   *string    `json:"notionUrl,omitempty"`
	AdsURL      *string    `json:"adsUrl,omitempty"`
	ExpiresAt   time.Time  `json:"expiresAt"`
}

type AuthService struct {
	adminRepo     repository.AdministratorRepository
	clientRepo    repository.ClientRepository
	sessionRepo   repository.SessionRepository
	sessionSecret string
}

func NewAuthService(
	adminRepo repository.AdministratorRepository,
	clientRepo repository.ClientRepository,
	sessionRepo repository.SessionRepository,
	sessionSecret string,
) *AuthService {
	return &AuthService{
		adminRepo:     adminRepo,
		clientRepo:    clientRepo,
		sessionRepo:   sessionRepo,
		sessionSecret: sessionSecret,
	}
}

// LoginAdmin resolves an administrator login. The lookup is bound to the
// administrators table; there is no role inference from the email itself.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (string, *Session, error) {
	if email == "" {
		return "", nil, apperrors.MissingRequired("email")
	}
	if password == "" {
		return "", nil, apperrors.MissingRequired("password")
	}

	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.Database(err)
	}
	if admin == nil {
		return "", nil, apperrors.NotFound("account")
	}
	if !util.CheckPasswordHash(password, admin.PasswordHash) {
		return "", nil, apperrors.InvalidCredentials()
	}

	return s.createSession(ctx, model.CreateDashboardSessionParams{
		Role:      model.RoleAdmin,
		AdminID:   &admin.ID,
		ExpiresAt: time.Now().Add(AdminSessionTTL),
	}, adminSession(admin))
}

// LoginClient resolves a client login against the clients table.
func (s *AuthService) LoginClient(ctx context.Context, email, password string) (string, *Session, error) {
	if email == "" {
		return "", nil, apperrors.MissingRequired("email")
	}
	if password == "" {
		return "", nil, apperrors.MissingRequired("password")
	}

	client, err := s.clientRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.Database(err)
	}
	if client == nil {
		return "", nil, apperrors.NotFound("account")
	}
	if !util.CheckPasswordHash(password, client.PasswordHash) {
		return "", nil, apperrors.InvalidCredentials()
	}

	return s.createSession(ctx, model.CreateDashboardSessionParams{
		Role:      model.RoleClient,
		ClientID:  &client.ID,
		ExpiresAt: time.Now().Add(ClientSessionTTL),
	}, clientSession(client))
}

func (s *AuthService) createSession(ctx context.Context, params model.CreateDashboardSessionParams, session *Session) (string, *Session, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", nil, apperrors.Internal("failed to generate session token").WithCause(err)
	}

	params.TokenHash = util.HmacSHA256(s.sessionSecret, token)
	record, err := s.sessionRepo.Create(ctx, params)
	if err != nil {
		return "", nil, apperrors.Database(err)
	}

	session.ExpiresAt = record.ExpiresAt
	return token, session, nil
}

// Logout deletes the session for the token if one exists. Unknown or
// malformed tokens are ignored; logout never fails for the caller.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	if err := s.sessionRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		log.Error().Err(err).Msg("failed to delete session on logout")
	}
	return nil
}

// Restore resolves a cookie token back into a Session. Any token that cannot
// be resolved — missing, corrupted, expired, or pointing at a deleted
// account — yields (nil, nil): the caller treats the user as unauthenticated
// and never sees a parse error.
func (s *AuthService) Restore(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	record, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if record == nil {
		return nil, nil
	}

	switch record.Role {
	case model.RoleAdmin:
		if record.AdminID == nil {
			return s.discard(ctx, tokenHash)
		}
		admin, err := s.adminRepo.FindByID(ctx, *record.AdminID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if admin == nil {
			return s.discard(ctx, tokenHash)
		}
		session := adminSession(admin)
		session.ExpiresAt = record.ExpiresAt
		return session, nil

	case model.RoleClient:
		if record.ClientID == nil {
			return s.discard(ctx, tokenHash)
		}
		client, err := s.clientRepo.FindByID(ctx, *record.ClientID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if client == nil {
			return s.discard(ctx, tokenHash)
		}
		session := clientSession(client)
		session.ExpiresAt = record.ExpiresAt
		return session, nil

	default:
		return s.discard(ctx, tokenHash)
	}
}

// discard drops a session row whose referenced account no longer resolves.
func (s *AuthService) discard(ctx context.Context, tokenHash string) (*Session, error) {
	if err := s.sessionRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		log.Warn().Err(err).Msg("failed to discard orphaned session")
	}
	return nil, nil
}

func adminSession(admin *model.Administrator) *Session {
	return &Session{
		ID:    admin.ID,
		Role:  model.RoleAdmin,
		Email: admin.Email,
		Name:  "Administrator",
	}
}

func clientSession(client *model.Client) *Session {
	return &Session{
		ID:          client.ID,
		Role:        model.RoleClient,
		Email:       client.Email,
		Name:        client.Name,
		ClientID:    &client.ID,
		InstagramID: client.InstagramID,
		LogoURL:     client.LogoURL,
		CalendarURL: client.CalendarURL,
		DriveURL:    client.DriveURL,
		NotionURL:   client.NotionURL,
		AdsURL:      client.AdsURL,
	}
}
