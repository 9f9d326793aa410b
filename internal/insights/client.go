package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Graph API endpoint the collector talks to.
const DefaultBaseURL = "https://graph.facebook.com/v18.0"

// requestedMetrics is the fixed metric set collected once per day.
var requestedMetrics = []string{"reach", "impressions", "follower_count"}

// DailySnapshot holds the values the insights endpoint returned for one day.
// Metrics the API does not return stay zero.
type DailySnapshot struct {
	Reach       int
	Impressions int
	Followers   int
}

type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int `json:"value"`
		} `json:"values"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

// FetchDaily requests the day-period insights for an Instagram business
// account. The API answers either a data envelope or an error envelope;
// both are handled here so callers only see a snapshot or an error.
func (c *Client) FetchDaily(ctx context.Context, accessToken, instagramID string) (*DailySnapshot, error) {
	var body insightsResponse
	var errBody insightsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"metric":       strings.Join(requestedMetrics, ","),
			"period":       "day",
			"access_token": accessToken,
		}).
		SetResult(&body).
		SetError(&errBody).
		Get(fmt.Sprintf("/%s/insights", instagramID))
	if err != nil {
		return nil, fmt.Errorf("insights request: %w", err)
	}

	if resp.IsError() {
		if errBody.Error != nil && errBody.Error.Message != "" {
			return nil, fmt.Errorf("insights api: %s", errBody.Error.Message)
		}
		return nil, fmt.Errorf("insights api: unexpected status %s", resp.Status())
	}

	// Some Graph API deployments answer 200 with an error envelope.
	if body.Error != nil {
		return nil, fmt.Errorf("insights api: %s", body.Error.Message)
	}

	snapshot := &DailySnapshot{}
	for _, entry := range body.Data {
		if len(entry.Values) == 0 {
			continue
		}
		value := entry.Values[0].Value
		switch entry.Name {
		case "reach":
			snapshot.Reach = value
		case "impressions":
			snapshot.Impressions = value
		case "follower_count":
			snapshot.Followers = value
		}
	}
	return snapshot, nil
}
