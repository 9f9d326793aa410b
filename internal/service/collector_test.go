package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/insights"
	"github.com/funillab/insta-dash-server/internal/model"
)

// newInsightsServer fakes the Graph API insights endpoint: account id "good"
// answers a data envelope, anything else answers an error envelope.
func newInsightsServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "day", r.URL.Query().Get("period"))
		assert.NotEmpty(t, r.URL.Query().Get("access_token"))
		assert.Contains(t, r.URL.Query().Get("metric"), "reach")

		w.Header().Set("Content-Type", "application/json")
		if !strings.HasPrefix(r.URL.Path, "/good/") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
			return
		}
		w.Write([]byte(`{"data":[
			{"name":"reach","values":[{"value":321}]},
			{"name":"impressions","values":[{"value":654}]},
			{"name":"follower_count","values":[{"value":987}]}
		]}`))
	}))
}

func collectableClient(id, instagramID string) *model.Client {
	token := "EAAG-test-token"
	ig := instagramID
	return &model.Client{
		ID:             id,
		Name:           "Acme Coffee",
		Email:          "acme@clients.example.com",
		InstagramID:    &ig,
		InstagramToken: &token,
	}
}

func TestCollectDaily(t *testing.T) {
	ctx := context.Background()
	clientID := "a2a4b53e-8d2f-4f68-9a7e-01f3a8b2c4d5"

	t.Run("fetches insights and inserts a sample", func(t *testing.T) {
		server := newInsightsServer(t)
		defer server.Close()

		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		client := collectableClient(clientID, "good")
		clientRepo.On("FindByID", ctx, clientID).Return(client, nil)

		var created model.CreateMetricSampleParams
		metricRepo.On("Create", ctx, mock.AnythingOfType("model.CreateMetricSampleParams")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(model.CreateMetricSampleParams)
			}).
			Return(&model.MetricSample{ID: "sample-row", ClientID: clientID, Reach: 321, Impressions: 654, Followers: 987}, nil)

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient(server.URL, 5*time.Second))
		sample, err := svc.CollectDaily(ctx, clientID)

		require.NoError(t, err)
		require.NotNil(t, sample)
		assert.Equal(t, 321, created.Reach)
		assert.Equal(t, 654, created.Impressions)
		assert.Equal(t, 987, created.Followers)
		assert.Zero(t, created.Likes)
		assert.Zero(t, created.Comments)
		assert.Zero(t, created.Engagement)

		now := time.Now().UTC()
		assert.Equal(t, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), created.Date)
	})

	t.Run("unknown client yields not found", func(t *testing.T) {
		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindByID", ctx, clientID).Return(nil, nil)

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient("http://unused", time.Second))
		_, err := svc.CollectDaily(ctx, clientID)

		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("client without credentials fails without calling the api", func(t *testing.T) {
		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindByID", ctx, clientID).Return(&model.Client{ID: clientID, Name: "No IG"}, nil)

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient("http://unused", time.Second))
		_, err := svc.CollectDaily(ctx, clientID)

		assert.Equal(t, apperrors.ErrCodeCollectionFailed, apperrors.GetCode(err))
		metricRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("api error yields collection failed", func(t *testing.T) {
		server := newInsightsServer(t)
		defer server.Close()

		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindByID", ctx, clientID).Return(collectableClient(clientID, "revoked"), nil)

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient(server.URL, 5*time.Second))
		_, err := svc.CollectDaily(ctx, clientID)

		assert.Equal(t, apperrors.ErrCodeCollectionFailed, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "Invalid OAuth access token")
		metricRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insert failure yields persist failed", func(t *testing.T) {
		server := newInsightsServer(t)
		defer server.Close()

		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindByID", ctx, clientID).Return(collectableClient(clientID, "good"), nil)
		metricRepo.On("Create", ctx, mock.AnythingOfType("model.CreateMetricSampleParams")).
			Return(nil, errors.New("insert failed"))

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient(server.URL, 5*time.Second))
		_, err := svc.CollectDaily(ctx, clientID)

		assert.Equal(t, apperrors.ErrCodePersistFailed, apperrors.GetCode(err))
	})

	t.Run("second run on the same day inserts a second row", func(t *testing.T) {
		server := newInsightsServer(t)
		defer server.Close()

		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindByID", ctx, clientID).Return(collectableClient(clientID, "good"), nil)
		metricRepo.On("Create", ctx, mock.AnythingOfType("model.CreateMetricSampleParams")).
			Return(&model.MetricSample{ID: "sample-row", ClientID: clientID}, nil)

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient(server.URL, 5*time.Second))

		_, err := svc.CollectDaily(ctx, clientID)
		require.NoError(t, err)
		_, err = svc.CollectDaily(ctx, clientID)
		require.NoError(t, err)

		metricRepo.AssertNumberOfCalls(t, "Create", 2)
	})
}

func TestCollectAll(t *testing.T) {
	ctx := context.Background()

	t.Run("continues past per-client failures", func(t *testing.T) {
		server := newInsightsServer(t)
		defer server.Close()

		healthy := collectableClient("11111111-1111-4111-8111-111111111111", "good")
		broken := collectableClient("22222222-2222-4222-8222-222222222222", "revoked")

		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindAllCollectable", ctx).Return([]model.Client{*healthy, *broken}, nil)
		clientRepo.On("FindByID", ctx, healthy.ID).Return(healthy, nil)
		clientRepo.On("FindByID", ctx, broken.ID).Return(broken, nil)
		metricRepo.On("Create", ctx, mock.AnythingOfType("model.CreateMetricSampleParams")).
			Return(&model.MetricSample{ID: "sample-row"}, nil)

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient(server.URL, 5*time.Second))
		collected, failed := svc.CollectAll(ctx)

		assert.Equal(t, 1, collected)
		assert.Equal(t, 1, failed)
		metricRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("listing failure aborts the run quietly", func(t *testing.T) {
		clientRepo := new(mockClientRepo)
		metricRepo := new(mockMetricRepo)
		clientRepo.On("FindAllCollectable", ctx).Return(nil, errors.New("down"))

		svc := NewCollectorService(clientRepo, metricRepo, insights.NewClient("http://unused", time.Second))
		collected, failed := svc.CollectAll(ctx)

		assert.Zero(t, collected)
		assert.Zero(t, failed)
	})
}
