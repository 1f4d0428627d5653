package feed

import (
	"errors"
	"fmt"
)

// ErrInvalidColumn reports a cell position outside the fixed feed layout.
var ErrInvalidColumn = errors.New("invalid feed column")

// Column identifies one of the seven fixed spreadsheet positions.
type Column int

const (
	ColumnSongNumber Column = iota + 1
	ColumnReleaseDate
	ColumnTitle
	ColumnURL
	ColumnDownloadURL
	ColumnTags
	ColumnDescription
)

var columnNames = map[Column]string{
	ColumnSongNumber:  "song_number",
	ColumnReleaseDate: "release_date",
	ColumnTitle:       "title",
	ColumnURL:         "url",
	ColumnDownloadURL: "download_url",
	ColumnTags:        "tags",
	ColumnDescription: "description",
}

// ParseColumn converts a 1-indexed feed position into a Column.
func ParseColumn(position int) (Column, error) {
	col := Column(position)
	if _, ok := columnNames[col]; !ok {
		return 0, fmt.Errorf("%w: %d (expected 1-%d)", ErrInvalidColumn, position, int(ColumnDescription))
	}
	return col, nil
}

func (c Column) String() string {
	if name, ok := columnNames[c]; ok {
		return name
	}
	return fmt.Sprintf("column(%d)", int(c))
}
