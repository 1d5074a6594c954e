package ai

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		status int
		want   FailureCategory
	}{
		{http.StatusUnauthorized, FailureAuth},
		{http.StatusForbidden, FailureAuth},
		{http.StatusTooManyRequests, FailureQuota},
		{http.StatusBadRequest, FailureBadRequest},
		{http.StatusInternalServerError, FailureOther},
	}
	for _, c := range cases {
		err := fmt.Errorf("call failed: %w", &openai.APIError{HTTPStatusCode: c.status})
		assert.Equal(t, c.want, Categorize(err), "status %d", c.status)
	}
	assert.Equal(t, FailureOther, Categorize(errors.New("plain error")))
}

func TestApologyIsAlwaysDisplayable(t *testing.T) {
	for _, err := range []error{
		&openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
		&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
		&openai.APIError{HTTPStatusCode: http.StatusBadRequest},
		errors.New("connection reset"),
	} {
		msg := Apology(err)
		assert.NotEmpty(t, msg)
		assert.NotContains(t, msg, "error", "apologies must read like chat messages")
	}
}
