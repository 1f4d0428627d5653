package assembly_test

import (
	"errors"
	"testing"

	"songaday/internal/assembly"
)

func TestYouTubeID(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{link: "https://youtu.be/ABC", want: "ABC"},
		{link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{link: "http://youtube.com/v/xyz", want: "xyz"},
		{link: " https://youtu.be/pad ", want: "pad"},
	}
	for _, tc := range cases {
		got, err := assembly.YouTubeID(tc.link)
		if err != nil {
			t.Fatalf("YouTubeID(%q) returned error: %v", tc.link, err)
		}
		if got != tc.want {
			t.Fatalf("YouTubeID(%q) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestYouTubeIDRejectsUnrecognizedLinks(t *testing.T) {
	for _, link := range []string{
		"https://vimeo.com/12345",
		"https://youtu.be/",
		"https://www.youtube.com/watch?v=",
		"",
	} {
		if _, err := assembly.YouTubeID(link); !errors.Is(err, assembly.ErrUnrecognizedLink) {
			t.Fatalf("YouTubeID(%q) error = %v, want ErrUnrecognizedLink", link, err)
		}
	}
}
