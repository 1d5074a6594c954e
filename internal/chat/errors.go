package chat

import "errors"

var (
	// ErrAuthentication means the caller could not be identified.
	ErrAuthentication = errors.New("caller not authenticated")
	// ErrOrganizationResolution means the caller's organization could not
	// be found or created.
	ErrOrganizationResolution = errors.New("organization resolution failed")
)

// apologyTurnFailed is returned when a turn cannot proceed at all (e.g.
// prompt config failed to load). Fatal to the turn, not to the process.
const apologyTurnFailed = "I'm sorry, I ran into a problem handling that. Please try again in a moment."
