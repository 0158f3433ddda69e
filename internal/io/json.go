package io

import (
	"encoding/json"
	stdio "io"
	"math"
	"sort"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/series"
)

// JSONReader reads a JSON array of flat record objects into a DataFrame.
// Missing keys and explicit nulls become null slots.
type JSONReader struct {
	reader stdio.Reader
	mem    memory.Allocator
}

// JSONWriter writes a DataFrame as a JSON array of record objects, nulls
// included.
type JSONWriter struct {
	writer stdio.Writer
}

// Read parses the whole input. Column order follows the first record;
// keys first seen in later records append after it.
func (r *JSONReader) Read() (*dataframe.DataFrame, error) {
	var records []map[string]any
	if err := json.NewDecoder(r.reader).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decoding json records")
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var names []string
	seen := map[string]bool{}
	for _, rec := range records {
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}
	// Map iteration order is random; only the keys of the first record get
	// a stable position.
	names = stableKeyOrder(records[0], names)

	columns := make([]dataframe.ISeries, len(names))
	for i, name := range names {
		columns[i] = r.buildColumn(name, records)
	}
	return dataframe.New(columns...), nil
}

func stableKeyOrder(first map[string]any, names []string) []string {
	// json.Decoder loses object key order, so sort for determinism: keys
	// of the first record first, alphabetically, then the rest.
	inFirst := func(name string) bool { _, ok := first[name]; return ok }
	ordered := make([]string, 0, len(names))
	var rest []string
	for _, name := range names {
		if inFirst(name) {
			ordered = append(ordered, name)
		} else {
			rest = append(rest, name)
		}
	}
	sort.Strings(ordered)
	sort.Strings(rest)
	return append(ordered, rest...)
}

func (r *JSONReader) buildColumn(name string, records []map[string]any) dataframe.ISeries {
	valid := make([]bool, len(records))
	cells := make([]any, len(records))
	allBool, allNumber, allIntegral := true, true, true
	for i, rec := range records {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		valid[i] = true
		cells[i] = v
		switch n := v.(type) {
		case bool:
			allNumber, allIntegral = false, false
		case float64:
			allBool = false
			if n != math.Trunc(n) || math.Abs(n) >= 1<<53 {
				allIntegral = false
			}
		default:
			allBool, allNumber, allIntegral = false, false, false
		}
	}

	switch {
	case allBool:
		vals := make([]bool, len(cells))
		for i, c := range cells {
			if valid[i] {
				vals[i] = c.(bool)
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	case allNumber && allIntegral:
		vals := make([]int64, len(cells))
		for i, c := range cells {
			if valid[i] {
				vals[i] = int64(c.(float64))
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	case allNumber:
		vals := make([]float64, len(cells))
		for i, c := range cells {
			if valid[i] {
				vals[i] = c.(float64)
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	default:
		vals := make([]string, len(cells))
		for i, c := range cells {
			if valid[i] {
				if s, ok := c.(string); ok {
					vals[i] = s
				} else {
					raw, _ := json.Marshal(c)
					vals[i] = string(raw)
				}
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	}
}

// Write renders the DataFrame as an indented array of record objects.
func (w *JSONWriter) Write(df *dataframe.DataFrame) error {
	names := df.Columns()
	records := make([]map[string]any, df.Len())
	for i := range records {
		rec := make(map[string]any, len(names))
		for _, name := range names {
			col, _ := df.Column(name)
			rec[name] = cellValue(col, i)
		}
		records[i] = rec
	}

	enc := json.NewEncoder(w.writer)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(records), "encoding json records")
}

func cellValue(col dataframe.ISeries, row int) any {
	if col.IsNull(row) {
		return nil
	}
	arr := col.Array()
	defer arr.Release()
	return arr.GetOneForMarshal(row)
}
