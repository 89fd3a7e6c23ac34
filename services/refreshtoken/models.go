package refreshtoken

import (
	"time"
)

// RefreshToken is one issued refresh session. The token column holds the
// opaque credential as issued; a row is usable only while revoked is false
// and the expiry is in the future. Revocation never un-sets.
type RefreshToken struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Token      string    `json:"-" gorm:"uniqueIndex;size:255;not null"`
	EmployeeID uint      `json:"employee_id" gorm:"not null;index"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
	Revoked    bool      `json:"revoked" gorm:"not null;default:false;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

type RefreshTokenData struct {
	Token     string
	TokenID   uint
	ExpiresAt time.Time
}

type RotationResult struct {
	EmployeeID   uint
	RefreshToken string
	ExpiresAt    time.Time
	OldTokenID   uint
}
