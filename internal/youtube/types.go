package youtube

// Video mirrors the subset of a videos.list item used for enrichment.
type Video struct {
	ID         string     `json:"id"`
	Snippet    Snippet    `json:"snippet"`
	Statistics Statistics `json:"statistics"`
}

// Snippet holds descriptive video fields. Tags is nil when the API omits it.
type Snippet struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Thumbnails  Thumbnails `json:"thumbnails"`
}

// Thumbnails lists the available thumbnail renditions.
type Thumbnails struct {
	Default *Thumbnail `json:"default"`
	Medium  *Thumbnail `json:"medium"`
	High    *Thumbnail `json:"high"`
}

// Thumbnail is a single thumbnail rendition.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Statistics carries counters, which the API encodes as decimal strings.
// A nil field means the owner hides that counter.
type Statistics struct {
	ViewCount    *string `json:"viewCount"`
	LikeCount    *string `json:"likeCount"`
	DislikeCount *string `json:"dislikeCount"`
}

// ListResponse models the videos.list response envelope.
type ListResponse struct {
	Kind  string  `json:"kind"`
	Items []Video `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}
