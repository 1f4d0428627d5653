package assembly

// Record is one song row assembled from the feed, optionally enriched with
// video metadata.
type Record struct {
	SongNumber  int
	ReleaseDate string
	Title       string
	URL         string
	DownloadURL string
	Tags        []string
	Description string
	YouTubeID   string

	ViewCount    *int64
	LikeCount    *int64
	DislikeCount *int64
	ThumbnailURL string
}

// HasYouTubeID reports whether a platform identifier was derived from the link.
func (r Record) HasYouTubeID() bool {
	return r.YouTubeID != ""
}

// Clone returns a copy that shares no slices or pointers with r.
func (r Record) Clone() Record {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	out.ViewCount = cloneCount(r.ViewCount)
	out.LikeCount = cloneCount(r.LikeCount)
	out.DislikeCount = cloneCount(r.DislikeCount)
	return out
}

func cloneCount(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
