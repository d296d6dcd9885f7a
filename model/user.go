package model

import (
	"time"
)

// User mirrors the identity provider's subject. Rows are created lazily on
// the first authenticated write; passwords and sessions live with the
// provider, not here.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email     string    `gorm:"index" json:"email"`
	FullName  string    `gorm:"type:varchar(255)" json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
