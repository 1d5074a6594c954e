package ai

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// FailureCategory classifies a failed AI call for user-facing messaging.
type FailureCategory string

const (
	FailureAuth       FailureCategory = "auth"
	FailureQuota      FailureCategory = "quota"
	FailureBadRequest FailureCategory = "bad_request"
	FailureOther      FailureCategory = "other"
)

// Categorize maps an AI call error to a failure category.
func Categorize(err error) FailureCategory {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureAuth
		case http.StatusTooManyRequests:
			return FailureQuota
		case http.StatusBadRequest:
			return FailureBadRequest
		}
	}
	return FailureOther
}

// Apology returns a fixed, displayable message for a failed AI call. Chat
// turns always return something conversational instead of a raw error.
func Apology(err error) string {
	switch Categorize(err) {
	case FailureAuth:
		return "I'm sorry, I'm having trouble connecting to my assistant service right now. Please try again in a little while."
	case FailureQuota:
		return "I'm sorry, I'm receiving a lot of requests at the moment. Please give me a minute and try again."
	case FailureBadRequest:
		return "I'm sorry, I couldn't process that message. Could you rephrase it?"
	default:
		return "I'm sorry, something went wrong on my side. Please try again."
	}
}
