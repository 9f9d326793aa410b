package model

import (
	"time"
)

type Client struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	InstagramID    *string   `db:"instagram_id" json:"instagramId,omitempty"`
	InstagramToken *string   `db:"instagram_token" json:"-"`
	LogoURL        *string   `db:"logo_url" json:"logoUrl,omitempty"`
	CalendarURL    *string   `db:"calendar_url" json:"calendarUrl,omitempty"`
	DriveURL       *string   `db:"drive_url" json:"driveUrl,omitempty"`
	NotionURL      *string   `db:"notion_url" json:"notionUrl,omitempty"`
	AdsURL         *string   `db:"ads_url" json:"adsUrl,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type CreateClientParams struct {
	Name           string
	Email          string
	PasswordHash   string
	InstagramID    *string
	InstagramToken *string
	LogoURL        *string
	CalendarURL    *string
	DriveURL       *string
	NotionURL      *string
	AdsURL         *string
}

// UpdateClientParams enumerates every mutable client field. A nil field
// is left unchanged.
type UpdateClientParams struct {
	Name           *string
	Email          *string
	PasswordHash   *string
	InstagramID    *string
	InstagramToken *string
	LogoURL        *string
	CalendarURL    *string
	DriveURL       *string
	NotionURL      *string
	AdsURL         *string
}
