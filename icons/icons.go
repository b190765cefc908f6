// Package icons describes which palette swatch each icon on the sheet gets.
//
// Two strategies provide that answer: a precomputed metadata table read from
// icondata.json (Table), and classification of the icon's own pixels (see the
// classify package). Both satisfy Resolver.
package icons

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/palette"
	"badc0de.net/pkg/go-vanilla/paths"
)

// Record assigns a swatch to an icon on the sheet. A list of records also
// fixes the export order.
type Record struct {
	Icon   int    `json:"icon"`
	Colour string `json:"colour"`
}

// Resolver answers which swatch an icon should be drawn with.
type Resolver interface {
	Swatch(icon int) string
}

// Table is the metadata table. It is immutable once built.
type Table struct {
	records []Record
	byIcon  map[int]string
}

func NewTable(records []Record) *Table {
	t := &Table{
		records: append([]Record(nil), records...),
		byIcon:  make(map[int]string, len(records)),
	}
	for _, r := range records {
		if _, ok := t.byIcon[r.Icon]; !ok {
			t.byIcon[r.Icon] = r.Colour
		}
	}
	return t
}

// Decode reads icondata.json: an ordered array of {"icon": n, "colour": key}.
func Decode(r io.Reader) (*Table, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decoding icon metadata")
	}
	for i, rec := range records {
		if rec.Icon < 0 {
			return nil, errors.Errorf("decoding icon metadata: record %d has negative icon %d", i, rec.Icon)
		}
		if rec.Colour == "" {
			return nil, errors.Errorf("decoding icon metadata: record %d (icon %d) has no colour", i, rec.Icon)
		}
	}
	return NewTable(records), nil
}

// Open reads icondata.json from a path or URL, as understood by
// paths.NoFindOpen.
func Open(path string) (*Table, error) {
	f, err := paths.NoFindOpen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening icon metadata %q", path)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes records in the icondata.json format.
func Encode(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return errors.Wrap(enc.Encode(records), "encoding icon metadata")
}

// Records returns the records in their original order.
func (t *Table) Records() []Record {
	return append([]Record(nil), t.records...)
}

func (t *Table) Len() int {
	return len(t.records)
}

// Swatch returns the icon's swatch; icons missing from the table are neutral.
func (t *Table) Swatch(icon int) string {
	if c, ok := t.byIcon[icon]; ok {
		return c
	}
	return palette.Neutral
}

// MaxIcon returns the highest icon index referenced, or -1 for an empty table.
func (t *Table) MaxIcon() int {
	highest := -1
	for _, r := range t.records {
		if r.Icon > highest {
			highest = r.Icon
		}
	}
	return highest
}

// FromResolver lists icons 0..n-1 in order with the swatch r gives them.
func FromResolver(n int, r Resolver) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{Icon: i, Colour: r.Swatch(i)}
	}
	return records
}

// Override returns a copy of records with every colour replaced by key. An
// empty key returns the records unchanged.
func Override(records []Record, key string) []Record {
	out := append([]Record(nil), records...)
	if key == "" {
		return out
	}
	for i := range out {
		out[i].Colour = key
	}
	return out
}
