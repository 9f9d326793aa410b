package model

import (
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// DashboardSession is a server-side session record. The raw token lives only
// in the caller's cookie; the row stores an HMAC of it.
type DashboardSession struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	Role      Role      `db:"role" json:"role"`
	AdminID   *string   `db:"admin_id" json:"adminId,omitempty"`
	ClientID  *string   `db:"client_id" json:"clientId,omitempty"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateDashboardSessionParams struct {
	TokenHash string
	Role      Role
	AdminID   *string
	ClientID  *string
	ExpiresAt time.Time
}
