package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services/directory"
	"github.com/sentinelai/counsel-api/utils/keylock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DirectorySearcher is the slice of the directory client the shortlist
// needs; it lets tests substitute a fake.
type DirectorySearcher interface {
	Search(ctx context.Context, name, country string) ([]model.University, error)
}

var _ DirectorySearcher = (*directory.Client)(nil)

// ShortlistService owns shortlist entries and their lock state. Identity
// is (user, name, country) case-insensitive; uniqueness and lock rules are
// enforced under the per-user lock so concurrent mutations for one user
// are serialized.
type ShortlistService struct {
	db        *gorm.DB
	directory DirectorySearcher
	locks     *keylock.KeyLock
}

// NewShortlistService creates a new shortlist service
func NewShortlistService(db *gorm.DB, dir DirectorySearcher, locks *keylock.KeyLock) *ShortlistService {
	return &ShortlistService{
		db:        db,
		directory: dir,
		locks:     locks,
	}
}

// List returns all shortlist entries for a user.
func (s *ShortlistService) List(ctx context.Context, userID string) ([]model.ShortlistEntry, error) {
	var entries []model.ShortlistEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	return entries, nil
}

// Add validates the university against the directory and inserts a new
// entry. Returns ErrNotFound when the directory has no match and
// ErrAlreadyShortlisted on a duplicate identity.
func (s *ShortlistService) Add(ctx context.Context, userID, universityName, country, category string) (*model.ShortlistEntry, error) {
	if !model.ValidCategory(category) {
		category = model.CategoryTarget
	}

	// Resolve against the directory first; an unknown university is the
	// caller's 404, not a directory outage.
	matches, err := s.directory.Search(ctx, universityName, country)
	if err != nil || len(matches) == 0 {
		return nil, ErrNotFound
	}
	university := matches[0]

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	existing, err := s.find(ctx, userID, university.Name, university.Country)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyShortlisted
	}

	data, err := json.Marshal(university)
	if err != nil {
		return nil, fmt.Errorf("failed to encode university: %w", err)
	}

	entry := model.ShortlistEntry{
		UserID:         userID,
		UniversityName: university.Name,
		Country:        university.Country,
		UniversityData: datatypes.JSON(data),
		Category:       category,
		IsLocked:       false,
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create shortlist entry: %w", err)
	}

	return &entry, nil
}

// Remove deletes an entry by id. Locked entries refuse removal with
// ErrRemoveLocked until unlocked.
func (s *ShortlistService) Remove(ctx context.Context, userID string, entryID uint) error {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	var entry model.ShortlistEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch shortlist entry: %w", err)
	}

	if entry.IsLocked {
		return ErrRemoveLocked
	}

	if err := s.db.WithContext(ctx).Delete(&entry).Error; err != nil {
		return fmt.Errorf("failed to delete shortlist entry: %w", err)
	}
	return nil
}

// Lock marks an entry as locked. Missing entry → ErrNotFound; locking an
// already-locked entry is a no-op.
func (s *ShortlistService) Lock(ctx context.Context, userID, universityName, country string) (*model.ShortlistEntry, error) {
	return s.setLocked(ctx, userID, universityName, country, true)
}

// Unlock clears the lock flag. Idempotent when already unlocked.
func (s *ShortlistService) Unlock(ctx context.Context, userID, universityName, country string) (*model.ShortlistEntry, error) {
	return s.setLocked(ctx, userID, universityName, country, false)
}

func (s *ShortlistService) setLocked(ctx context.Context, userID, universityName, country string, locked bool) (*model.ShortlistEntry, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	entry, err := s.find(ctx, userID, universityName, country)
	if err != nil {
		return nil, err
	}

	if entry.IsLocked == locked {
		return entry, nil
	}

	entry.IsLocked = locked
	if err := s.db.WithContext(ctx).Model(entry).Update("is_locked", locked).Error; err != nil {
		return nil, fmt.Errorf("failed to update lock state: %w", err)
	}
	return entry, nil
}

// find matches an entry by identity, case-insensitively.
func (s *ShortlistService) find(ctx context.Context, userID, universityName, country string) (*model.ShortlistEntry, error) {
	var entry model.ShortlistEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(university_name) = ? AND LOWER(country) = ?",
			userID, strings.ToLower(universityName), strings.ToLower(country)).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch shortlist entry: %w", err)
	}
	return &entry, nil
}
