package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedFeed reports a payload that is not valid feed JSON once unwrapped.
var ErrMalformedFeed = errors.New("malformed feed")

var (
	callbackPrefix = regexp.MustCompile(`^[A-Za-z0-9_.$]*\(`)
	callbackSuffix = regexp.MustCompile(`\)\s*;?$`)
)

// Payload is the decoded feed document.
type Payload struct {
	Feed *Sheet `json:"feed"`
}

// Sheet holds the cell entries of one worksheet.
type Sheet struct {
	Entries []Entry `json:"entry"`
}

// Entry is one spreadsheet cell as the feed encodes it. Row and column arrive
// as decimal strings.
type Entry struct {
	Cell struct {
		Text string `json:"$t"`
		Row  string `json:"row"`
		Col  string `json:"col"`
	} `json:"gs$cell"`
}

// Cell is a typed view of one feed entry.
type Cell struct {
	Row   int
	Col   int
	Value string
}

// Column validates the cell position against the fixed layout.
func (c Cell) Column() (Column, error) {
	return ParseColumn(c.Col)
}

// Unwrap strips a JSONP callback wrapper such as `cb({...});`. A leading
// `// ...` comment line is dropped as well. Bodies without a wrapper come back
// trimmed but otherwise unchanged.
func Unwrap(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("//")) {
		if idx := bytes.IndexByte(trimmed, '\n'); idx >= 0 {
			trimmed = bytes.TrimSpace(trimmed[idx+1:])
		} else {
			return nil
		}
	}
	loc := callbackPrefix.FindIndex(trimmed)
	if loc == nil {
		return trimmed
	}
	inner := trimmed[loc[1]:]
	if end := callbackSuffix.FindIndex(inner); end != nil {
		inner = inner[:end[0]]
	}
	return bytes.TrimSpace(inner)
}

// Parse unwraps and decodes a feed payload.
func Parse(body []byte) (*Payload, error) {
	raw := Unwrap(body)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedFeed)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFeed, err)
	}
	if payload.Feed == nil {
		return nil, fmt.Errorf("%w: missing feed object", ErrMalformedFeed)
	}
	return &payload, nil
}

// Cells returns the entries as typed cells in delivery order.
func (p *Payload) Cells() ([]Cell, error) {
	if p == nil || p.Feed == nil {
		return nil, nil
	}
	cells := make([]Cell, 0, len(p.Feed.Entries))
	for i, entry := range p.Feed.Entries {
		row, err := parsePosition(entry.Cell.Row)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d row: %w", ErrMalformedFeed, i, err)
		}
		col, err := parsePosition(entry.Cell.Col)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d col: %w", ErrMalformedFeed, i, err)
		}
		cells = append(cells, Cell{Row: row, Col: col, Value: entry.Cell.Text})
	}
	return cells, nil
}

func parsePosition(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("position %d must be positive", n)
	}
	return n, nil
}
