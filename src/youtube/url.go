package youtube

import "regexp"

// linkPattern accepts the usual YouTube URL shapes: watch links, youtu.be
// short links, embeds, live streams and the nocookie domain.
var linkPattern = regexp.MustCompile(
	`(?i)((?:https?:)?//(?:www\.|m\.)?(?:youtube(?:-nocookie)?\.com|youtu\.be)/(?:[\w\-]+\?v=|embed/|live/|v/)?[\w\-]+(?:\S+)?)`,
)

// Matches reports whether the text contains a recognized YouTube link.
func Matches(text string) bool {
	return linkPattern.MatchString(text)
}

// Extract returns the first recognized YouTube link in the text, or ""
// when there is none.
func Extract(text string) string {
	return linkPattern.FindString(text)
}
