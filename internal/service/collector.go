package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/insights"
	"github.com/funillab/insta-dash-server/internal/model"
	"github.com/funillab/insta-dash-server/internal/repository"
)

// InsightsFetcher is the slice of the Graph API client the collector needs.
type InsightsFetcher interface {
	FetchDaily(ctx context.Context, accessToken, instagramID string) (*insights.DailySnapshot, error)
}

type CollectorService struct {
	clientRepo repository.ClientRepository
	metricRepo repository.MetricRepository
	insights   InsightsFetcher
}

func NewCollectorService(
	clientRepo repository.ClientRepository,
	metricRepo repository.MetricRepository,
	fetcher InsightsFetcher,
) *CollectorService {
	return &CollectorService{
		clientRepo: clientRepo,
		metricRepo: metricRepo,
		insights:   fetcher,
	}
}

// CollectDaily fetches today's insights for one client and inserts a new
// sample row. Plain insert: a second run on the same day produces a second
// row for that date. There is no retry.
func (s *CollectorService) CollectDaily(ctx context.Context, clientID string) (*model.MetricSample, error) {
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("client")
	}
	if client.InstagramID == nil || client.InstagramToken == nil {
		return nil, apperrors.CollectionFailed("client has no Instagram credentials")
	}

	snapshot, err := s.insights.FetchDaily(ctx, *client.InstagramToken, *client.InstagramID)
	if err != nil {
		return nil, apperrors.CollectionFailed(err.Error())
	}

	sample, err := s.metricRepo.Create(ctx, model.CreateMetricSampleParams{
		ClientID:    client.ID,
		Date:        today(),
		Reach:       snapshot.Reach,
		Impressions: snapshot.Impressions,
		Followers:   snapshot.Followers,
	})
	if err != nil {
		return nil, apperrors.PersistFailed(err)
	}

	log.Info().
		Str("clientId", client.ID).
		Int("reach", sample.Reach).
		Int("impressions", sample.Impressions).
		Int("followers", sample.Followers).
		Msg("daily metrics collected")

	return sample, nil
}

// CollectAll runs CollectDaily for every client that has Instagram
// credentials. Per-client failures are logged and skipped; the run
// continues.
func (s *CollectorService) CollectAll(ctx context.Context) (collected, failed int) {
	clients, err := s.clientRepo.FindAllCollectable(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list collectable clients")
		return 0, 0
	}

	for _, client := range clients {
		if _, err := s.CollectDaily(ctx, client.ID); err != nil {
			log.Error().Err(err).Str("clientId", client.ID).Msg("collection failed for client")
			failed++
			continue
		}
		collected++
	}
	return collected, failed
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
