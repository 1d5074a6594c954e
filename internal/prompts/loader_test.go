package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBothModes(t *testing.T) {
	l := NewLoader()
	for _, mode := range []Mode{ModeOnboarding, ModeBusiness} {
		cfg, err := l.Load(mode)
		require.NoError(t, err, mode)
		assert.NotEmpty(t, cfg.Identity)
		assert.NotEmpty(t, cfg.Objective)
		assert.Contains(t, cfg.Languages, DefaultLocale)
	}
}

func TestLoadUnknownModeFails(t *testing.T) {
	l := NewLoader()
	_, err := l.Load(Mode("karaoke"))
	assert.Error(t, err)
}

func TestBuildSystemPromptLocaleSelection(t *testing.T) {
	l := NewLoader()

	es, err := l.BuildSystemPrompt(ModeOnboarding, "es", "", false)
	require.NoError(t, err)
	assert.Contains(t, es, "español")

	// unknown locales fall back to the default instruction
	fallback, err := l.BuildSystemPrompt(ModeOnboarding, "de", "", false)
	require.NoError(t, err)
	assert.Contains(t, fallback, "Respond in English.")
}

func TestBuildSystemPromptIncludesTrainingContext(t *testing.T) {
	l := NewLoader()

	with, err := l.BuildSystemPrompt(ModeBusiness, "en", "- hours: 9am to 6pm", true)
	require.NoError(t, err)
	assert.Contains(t, with, "Known business context:")
	assert.Contains(t, with, "- hours: 9am to 6pm")

	without, err := l.BuildSystemPrompt(ModeBusiness, "en", "", true)
	require.NoError(t, err)
	assert.NotContains(t, without, "Known business context:")
}

func TestCompletionCriteriaOnlyDuringOnboarding(t *testing.T) {
	l := NewLoader()
	cfg, err := l.Load(ModeOnboarding)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.CompletionCriteria)

	active, err := l.BuildSystemPrompt(ModeOnboarding, "en", "", false)
	require.NoError(t, err)
	assert.Contains(t, active, "Onboarding is complete")

	done, err := l.BuildSystemPrompt(ModeOnboarding, "en", "", true)
	require.NoError(t, err)
	assert.NotContains(t, done, "Onboarding is complete")
}
