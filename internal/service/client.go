package service

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/model"
	"github.com/funillab/insta-dash-server/internal/repository"
	"github.com/funillab/insta-dash-server/internal/util"
)

const pqUniqueViolation = "23505"

// CreateClientInput carries the admin form for a new client record. The
// password arrives in plain text and is hashed here before it touches
// the repository.
type CreateClientInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	InstagramID    *string `json:"instagramId"`
	InstagramToken *string `json:"instagramToken"`
	LogoURL        *string `json:"logoUrl"`
	CalendarURL    *string `json:"calendarUrl"`
	DriveURL       *string `json:"driveUrl"`
	NotionURL      *string `json:"notionUrl"`
	AdsURL         *string `json:"adsUrl"`
}

// UpdateClientInput is a partial update; nil fields are left as they are.
// An empty-string password means "keep the current one".
type UpdateClientInput struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	InstagramID    *string `json:"instagramId"`
	InstagramToken *string `json:"instagramToken"`
	LogoURL        *string `json:"logoUrl"`
	CalendarURL    *string `json:"calendarUrl"`
	DriveURL       *string `json:"driveUrl"`
	NotionURL      *string `json:"notionUrl"`
	AdsURL         *string `json:"adsUrl"`
}

// Stats is the admin overview counter block.
type Stats struct {
	Clients        int `json:"clients"`
	Samples        int `json:"samples"`
	SamplesToday   int `json:"samplesToday"`
	ActiveSessions int `json:"activeSessions"`
}

type ClientService struct {
	clientRepo  repository.ClientRepository
	metricRepo  repository.MetricRepository
	sessionRepo repository.SessionRepository
}

func NewClientService(
	clientRepo repository.ClientRepository,
	metricRepo repository.MetricRepository,
	sessionRepo repository.SessionRepository,
) *ClientService {
	return &ClientService{
		clientRepo:  clientRepo,
		metricRepo:  metricRepo,
		sessionRepo: sessionRepo,
	}
}

func (s *ClientService) List(ctx context.Context, limit, offset int) ([]model.Client, int, error) {
	clients, err := s.clientRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.clientRepo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients, total, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*model.Client, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.InvalidInput("id", "must be a valid UUID")
	}
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("client")
	}
	return client, nil
}

func (s *ClientService) Create(ctx context.Context, input CreateClientInput) (*model.Client, error) {
	if input.Name == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if input.Email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if !util.IsValidEmail(input.Email) {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if input.Password == "" {
		return nil, apperrors.MissingRequired("password")
	}

	passwordHash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	client, err := s.clientRepo.Create(ctx, model.CreateClientParams{
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   passwordHash,
		InstagramID:    input.InstagramID,
		InstagramToken: input.InstagramToken,
		LogoURL:        input.LogoURL,
		CalendarURL:    input.CalendarURL,
		DriveURL:       input.DriveURL,
		NotionURL:      input.NotionURL,
		AdsURL:         input.AdsURL,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("client with this email")
		}
		return nil, apperrors.Database(err)
	}
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, id string, input UpdateClientInput) (*model.Client, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.InvalidInput("id", "must be a valid UUID")
	}
	if input.Email != nil && !util.IsValidEmail(*input.Email) {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}

	params := model.UpdateClientParams{
		Name:           input.Name,
		Email:          input.Email,
		InstagramID:    input.InstagramID,
		InstagramToken: input.InstagramToken,
		LogoURL:        input.LogoURL,
		CalendarURL:    input.CalendarURL,
		DriveURL:       input.DriveURL,
		NotionURL:      input.NotionURL,
		AdsURL:         input.AdsURL,
	}
	if input.Password != nil && *input.Password != "" {
		passwordHash, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, apperrors.Internal("failed to hash password").WithCause(err)
		}
		params.PasswordHash = &passwordHash
	}

	client, err := s.clientRepo.Update(ctx, id, params)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("client with this email")
		}
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("client")
	}
	return client, nil
}

// Delete removes a client record. Metric samples and sessions go with it
// through the foreign key cascades.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	client, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, client.ID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// ChangePassword lets a logged-in client rotate their own password. All of
// the client's other sessions are revoked afterwards.
func (s *ClientService) ChangePassword(ctx context.Context, clientID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.MissingRequired("currentPassword")
	}
	if len(newPassword) < 8 {
		return apperrors.InvalidInput("newPassword", "must be at least 8 characters")
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return apperrors.Database(err)
	}
	if client == nil {
		return apperrors.NotFound("client")
	}
	if !util.CheckPasswordHash(currentPassword, client.PasswordHash) {
		return apperrors.InvalidCredentials()
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password").WithCause(err)
	}
	if err := s.clientRepo.UpdatePasswordHash(ctx, client.ID, passwordHash); err != nil {
		return apperrors.Database(err)
	}

	if err := s.sessionRepo.DeleteByClientID(ctx, client.ID); err != nil {
		log.Warn().Err(err).Str("clientId", client.ID).Msg("failed to revoke sessions after password change")
	}
	return nil
}

func (s *ClientService) Stats(ctx context.Context) (*Stats, error) {
	clients, err := s.clientRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	samples, err := s.metricRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	samplesToday, err := s.metricRepo.CountSince(ctx, midnight)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	sessions, err := s.sessionRepo.CountActive(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &Stats{
		Clients:        clients,
		Samples:        samples,
		SamplesToday:   samplesToday,
		ActiveSessions: sessions,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
