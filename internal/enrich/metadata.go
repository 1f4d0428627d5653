package enrich

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"songaday/internal/assembly"
	"songaday/internal/youtube"
)

// ErrMissingViewCount reports a video item without a usable view count.
var ErrMissingViewCount = errors.New("video has no view count")

// Metadata is the per-video bundle merged into a record.
type Metadata struct {
	YouTubeID    string
	Description  string
	ViewCount    int64
	LikeCount    *int64
	DislikeCount *int64
	// Tags is only merged when HasTags is set.
	Tags         []string
	HasTags      bool
	ThumbnailURL string
}

// BundleFromVideo extracts a Metadata bundle from an API item.
func BundleFromVideo(video youtube.Video) (Metadata, error) {
	views, err := parseCount(video.Statistics.ViewCount)
	if err != nil {
		return Metadata{}, fmt.Errorf("video %s: view count: %w", video.ID, err)
	}
	if views == nil {
		return Metadata{}, fmt.Errorf("video %s: %w", video.ID, ErrMissingViewCount)
	}
	likes, err := parseCount(video.Statistics.LikeCount)
	if err != nil {
		return Metadata{}, fmt.Errorf("video %s: like count: %w", video.ID, err)
	}
	dislikes, err := parseCount(video.Statistics.DislikeCount)
	if err != nil {
		return Metadata{}, fmt.Errorf("video %s: dislike count: %w", video.ID, err)
	}

	bundle := Metadata{
		YouTubeID:    video.ID,
		Description:  video.Snippet.Description,
		ViewCount:    *views,
		LikeCount:    likes,
		DislikeCount: dislikes,
	}
	if video.Snippet.Tags != nil {
		bundle.Tags = append([]string(nil), video.Snippet.Tags...)
		bundle.HasTags = true
	}
	if thumb := video.Snippet.Thumbnails.Default; thumb != nil {
		bundle.ThumbnailURL = thumb.URL
	}
	return bundle, nil
}

// Apply returns rec with the bundle merged in. Description, counts and
// thumbnail are replaced outright, absent values included. Tags are appended.
func Apply(rec assembly.Record, bundle Metadata) assembly.Record {
	out := rec.Clone()
	out.Description = bundle.Description
	views := bundle.ViewCount
	out.ViewCount = &views
	out.LikeCount = copyCount(bundle.LikeCount)
	out.DislikeCount = copyCount(bundle.DislikeCount)
	out.ThumbnailURL = bundle.ThumbnailURL
	if bundle.HasTags {
		out.Tags = append(out.Tags, bundle.Tags...)
	}
	return out
}

func parseCount(raw *string) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func copyCount(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
