package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesAcceptedShapes(t *testing.T) {
	accepted := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"http://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://youtube.com/live/dQw4w9WgXcQ",
		"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ",
		"check this out https://youtu.be/abc_-123XYZ !!",
	}
	for _, text := range accepted {
		assert.True(t, Matches(text), "should match: %s", text)
	}
}

func TestMatchesRejectsOtherLinks(t *testing.T) {
	rejected := []string{
		"no link here",
		"https://vimeo.com/123456",
		"https://example.com/youtube.com/watch?v=x",
	}
	for _, text := range rejected {
		assert.False(t, Matches(text), "should not match: %s", text)
	}
}

func TestExtractReturnsFirstLink(t *testing.T) {
	text := "two links https://youtu.be/first and https://youtu.be/second"
	assert.Equal(t, "https://youtu.be/first", Extract(text))
	assert.Equal(t, "", Extract("nothing to see"))
}
