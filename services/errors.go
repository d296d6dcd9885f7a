package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// to HTTP codes: ErrNotFound → 404, ErrAlreadyShortlisted and
// ErrRemoveLocked → 400, the gate errors → 403.
var (
	// ErrNotFound covers missing profiles, unknown universities and
	// absent shortlist entries.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyShortlisted is returned when an identity already exists in
	// the user's shortlist.
	ErrAlreadyShortlisted = errors.New("university already in shortlist")

	// ErrRemoveLocked is returned when removing a locked entry; the entry
	// must be unlocked first.
	ErrRemoveLocked = errors.New("cannot remove locked university, unlock first")

	// ErrGateOnboarding is returned by counsellor operations when the
	// profile is incomplete.
	ErrGateOnboarding = errors.New("complete onboarding before accessing the counsellor")

	// ErrGateLock is returned by guidance operations when no shortlist
	// entry is locked.
	ErrGateLock = errors.New("lock at least one university to access application guidance")
)
