package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	html := `<html><head><style>body{color:red}</style><script>alert(1)</script></head>
		<body><h1>Lupita's  Tacos</h1><p>Open 9am to 6pm</p></body></html>`
	text := StripMarkup(html)
	assert.Equal(t, "Lupita's Tacos Open 9am to 6pm", text)
}

func TestStripMarkupEmptyPage(t *testing.T) {
	assert.Equal(t, "", StripMarkup("<html><script>only scripts</script></html>"))
}

func TestSegmentsFromResultPrefersExtractedFacts(t *testing.T) {
	segments := segmentsFromResult(&Result{
		Success:      true,
		BusinessInfo: map[string]string{"hours": "9-6", "business_name": "Lupita's", "empty": ""},
		RawContent:   "raw page text",
	})
	assert.Equal(t, []string{"business_name: Lupita's", "hours: 9-6"}, segments)
}

func TestSegmentsFromResultChunksRawFallback(t *testing.T) {
	long := make([]byte, 3200)
	for i := range long {
		long[i] = 'a'
	}
	segments := segmentsFromResult(&Result{Success: true, RawContent: string(long)})
	assert.Len(t, segments, 3)
	assert.Len(t, segments[0], 1500)
	assert.Len(t, segments[2], 200)
}
