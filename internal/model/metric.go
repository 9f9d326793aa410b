package model

import (
	"time"
)

// MetricSample is one day's snapshot of a client's Instagram metrics.
type MetricSample struct {
	ID          string    `db:"id" json:"id"`
	ClientID    string    `db:"client_id" json:"clientId"`
	Date        time.Time `db:"date" json:"date"`
	Reach       int       `db:"reach" json:"reach"`
	Impressions int       `db:"impressions" json:"impressions"`
	Likes       int       `db:"likes" json:"likes"`
	Comments    int       `db:"comments" json:"comments"`
	Followers   int       `db:"followers" json:"followers"`
	Engagement  int       `db:"engagement" json:"engagement"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateMetricSampleParams struct {
	ClientID    string
	Date        time.Time
	Reach       int
	Impressions int
	Likes       int
	Comments    int
	Followers   int
	Engagement  int
}
