package types

import "errors"

var (
	ErrAdNotFound      = errors.New("ad not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrDraftNotFound   = errors.New("draft not found")

	ErrFeedSessionNotFound = errors.New("feed session not found")
)
