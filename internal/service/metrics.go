package service

import (
	"context"
	"math"
	"time"

	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/model"
	"github.com/funillab/insta-dash-server/internal/repository"
)

// DefaultRangeDays is the fallback window when the caller gives no range.
const DefaultRangeDays = 7

// trendWindow is the index offset between the latest sample and its
// comparison point: with one sample per day this approximates a
// week-over-week change.
const trendWindow = 8

type Summary struct {
	Followers int `json:"followers"`
	Likes     int `json:"likes"`
	Comments  int `json:"comments"`
	Reach     int `json:"reach"`
}

type TrendResult struct {
	Reach       int `json:"reach"`
	Impressions int `json:"impressions"`
	Likes       int `json:"likes"`
	Comments    int `json:"comments"`
}

type MetricsService struct {
	metricRepo repository.MetricRepository
}

func NewMetricsService(metricRepo repository.MetricRepository) *MetricsService {
	return &MetricsService{metricRepo: metricRepo}
}

// Fetch returns the client's samples inside the inclusive date range,
// ascending by date. A nil bound defaults to [today-7d, today]. Every call
// re-queries; there is no cache.
func (s *MetricsService) Fetch(ctx context.Context, clientID string, from, to *time.Time) ([]model.MetricSample, error) {
	end := time.Now()
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -DefaultRangeDays)
	if from != nil {
		start = *from
	}

	samples, err := s.metricRepo.FindByClientAndRange(ctx, clientID, truncateToDate(start), truncateToDate(end))
	if err != nil {
		return nil, apperrors.FetchFailed(err)
	}
	if samples == nil {
		samples = []model.MetricSample{}
	}
	return samples, nil
}

// Summarize sums the metrics over the input. Empty input yields zeros.
func Summarize(samples []model.MetricSample) Summary {
	var summary Summary
	for _, sample := range samples {
		summary.Followers += sample.Followers
		summary.Likes += sample.Likes
		summary.Comments += sample.Comments
		summary.Reach += sample.Reach
	}
	return summary
}

// Trend computes period-over-period change percentages between the latest
// sample and the one trendWindow-1 positions before it (clamped to the first
// sample). Returns nil on empty input. The comparison is by index, not by
// calendar date, so it degrades when the series has gaps.
func Trend(samples []model.MetricSample) *TrendResult {
	if len(samples) == 0 {
		return nil
	}

	latest := samples[len(samples)-1]
	previousIndex := len(samples) - trendWindow
	if previousIndex < 0 {
		previousIndex = 0
	}
	previous := samples[previousIndex]

	return &TrendResult{
		Reach:       trendPct(latest.Reach, previous.Reach),
		Impressions: trendPct(latest.Impressions, previous.Impressions),
		Likes:       trendPct(latest.Likes, previous.Likes),
		Comments:    trendPct(latest.Comments, previous.Comments),
	}
}

func trendPct(latest, previous int) int {
	if previous == 0 {
		return 0
	}
	return int(math.Round(float64(latest-previous) / float64(previous) * 100))
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
