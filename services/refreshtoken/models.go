package refreshtoken

import (
	"time"
)

// RefreshToken is the durable record of one issued refresh token. The row is
// the source of truth; the signed token string only carries the same
// identifiers. IsRevoked moves false -> true exactly once and is never reset.
type RefreshToken struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      string    `json:"user_id" gorm:"size:36;not null;index"`
	TokenFamily string    `json:"token_family" gorm:"size:64;not null;index"`
	IsRevoked   bool      `json:"is_revoked" gorm:"not null;default:false"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

type RotationStatus int

const (
	// StatusRotated: the presented token was consumed and a successor issued.
	StatusRotated RotationStatus = iota
	// StatusReused: the presented token had already been consumed; its whole
	// family has been revoked.
	StatusReused
	// StatusInvalid: undecodable, unknown, or expired token.
	StatusInvalid
)

func (s RotationStatus) String() string {
	switch s {
	case StatusRotated:
		return "rotated"
	case StatusReused:
		return "reused"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// RotationResult is an ordinary return value: Reused and Invalid are expected
// traffic, not errors.
type RotationResult struct {
	Status   RotationStatus
	UserID   string
	Family   string
	NewToken string
}
