package assembly

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedLink reports a primary link that yields no video identifier.
var ErrUnrecognizedLink = errors.New("unrecognized video link")

const youtubeMarker = "youtu"

// YouTubeID derives the video identifier from a primary link: the text after
// the last "/" and then after the last "=". Links without the youtu marker, or
// whose derived identifier is empty, fail with ErrUnrecognizedLink.
func YouTubeID(link string) (string, error) {
	link = strings.TrimSpace(link)
	id := link[strings.LastIndex(link, "/")+1:]
	id = id[strings.LastIndex(id, "=")+1:]
	if !strings.Contains(link, youtubeMarker) || id == "" {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedLink, link)
	}
	return id, nil
}
