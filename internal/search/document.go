package search

import (
	"strconv"

	"songaday/internal/catalog"
)

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldTags        = "tags"
	fieldSongNumber  = "song_number"
)

// Document is the indexed view of one catalog entry.
type Document struct {
	SongNumber  int
	Title       string
	Description string
	Tags        []string
}

// DocumentFromEntry builds the indexed view of entry.
func DocumentFromEntry(entry catalog.Entry) Document {
	return Document{
		SongNumber:  entry.SongNumber,
		Title:       entry.Title,
		Description: entry.Description,
		Tags:        entry.TagTexts(),
	}
}

// ID returns the Bleve document key.
func (d Document) ID() string {
	return strconv.Itoa(d.SongNumber)
}

// toMap keeps field names aligned with the mapping.
func (d Document) toMap() map[string]any {
	return map[string]any{
		fieldSongNumber:  float64(d.SongNumber),
		fieldTitle:       d.Title,
		fieldDescription: d.Description,
		fieldTags:        d.Tags,
	}
}
