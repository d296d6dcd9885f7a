package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ShortlistEntry is a university saved by a user. Identity is
// (user_id, university_name, country), matched case-insensitively;
// uniqueness is enforced by the shortlist service under the per-user lock.
// A locked entry cannot be removed until it is unlocked.
type ShortlistEntry struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         string         `gorm:"type:varchar(64);not null;index:idx_shortlist_user" json:"user_id"`
	UniversityName string         `gorm:"type:varchar(255);not null;index:idx_shortlist_identity" json:"university_name"`
	Country        string         `gorm:"type:varchar(100);not null;index:idx_shortlist_identity" json:"country"`
	UniversityData datatypes.JSON `json:"university"`
	Category       string         `gorm:"type:varchar(20);not null" json:"category"`
	IsLocked       bool           `gorm:"default:false" json:"is_locked"`
	CreatedAt      time.Time      `json:"added_at"`
	UpdatedAt      time.Time      `json:"-"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ShortlistEntry
func (ShortlistEntry) TableName() string {
	return "shortlist_entries"
}
