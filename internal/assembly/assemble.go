package assembly

import (
	"iter"
	"log/slog"

	"songaday/internal/feed"
)

// Assembler turns feed cells into completed records.
type Assembler struct {
	logger *slog.Logger
}

// New creates an assembler. A nil logger discards diagnostics.
func New(logger *slog.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Records folds cells in delivery order and yields each completed record as
// it closes. Each call starts a fresh fold. The sequence stops after the first
// error.
func (a *Assembler) Records(cells []feed.Cell) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		acc := NewAccumulator(a.logger)
		for _, cell := range cells {
			rec, ok, err := acc.Step(cell)
			if err != nil {
				yield(Record{}, err)
				return
			}
			if ok && !yield(rec, nil) {
				return
			}
		}
		if rec, ok := acc.Flush(); ok {
			yield(rec, nil)
		}
	}
}

// Assemble collects Records into a slice.
func (a *Assembler) Assemble(cells []feed.Cell) ([]Record, error) {
	var records []Record
	for rec, err := range a.Records(cells) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
