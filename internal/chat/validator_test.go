package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chayo-app/backend/pkg/ai"
)

type scriptedClient struct {
	raw json.RawMessage
	err error
}

func (s *scriptedClient) Complete(ctx context.Context, messages []ai.Message, opts ai.CallOptions) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedClient) CompleteStructured(ctx context.Context, system string, history []ai.Message, schema ai.StructuredSchema, opts ai.CallOptions) (json.RawMessage, error) {
	return s.raw, s.err
}

func TestValidateReturnsVerdict(t *testing.T) {
	v := NewValidator(&scriptedClient{raw: json.RawMessage(`{"answered":true,"answer":"9am to 6pm","confidence":0.91}`)}, "gpt-4o-mini", nil)
	verdict := v.Validate(context.Background(), "we open at 9 and close at 6", "What are your opening hours?")
	assert.True(t, verdict.Answered)
	assert.Equal(t, "9am to 6pm", verdict.Answer)
	assert.InDelta(t, 0.91, verdict.Confidence, 1e-9)
}

func TestValidateFailureMeansUnanswered(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		v := NewValidator(&scriptedClient{err: errors.New("timeout")}, "gpt-4o-mini", nil)
		assert.Equal(t, Verdict{}, v.Validate(context.Background(), "text", "question"))
	})
	t.Run("malformed payload", func(t *testing.T) {
		v := NewValidator(&scriptedClient{raw: json.RawMessage(`not json`)}, "gpt-4o-mini", nil)
		assert.Equal(t, Verdict{}, v.Validate(context.Background(), "text", "question"))
	})
}
