package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/series"
)

// CSVReader reads CSV text into a DataFrame, inferring column types.
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// CSVWriter writes a DataFrame as CSV text.
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// Read parses the whole input. Empty fields (and the configured null
// token) become null slots so downstream aggregations treat them as
// missing rather than as zeros.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv")
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var rows [][]string
	if r.options.Header {
		headers = records[0]
		rows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		rows = records
	}

	columns := make([]dataframe.ISeries, len(headers))
	for i, header := range headers {
		cells := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for j, row := range rows {
			if i >= len(row) {
				continue
			}
			cell := row[i]
			if cell == "" || (r.options.NullToken != "" && cell == r.options.NullToken) {
				continue
			}
			cells[j] = cell
			valid[j] = true
		}
		columns[i] = r.buildColumn(header, cells, valid)
	}
	return dataframe.New(columns...), nil
}

// buildColumn infers the column type from its non-null cells and builds
// the series. Inference prefers bool, then int64, then float64, falling
// back to string.
func (r *CSVReader) buildColumn(name string, cells []string, valid []bool) dataframe.ISeries {
	canBeBool, canBeInt, canBeFloat := true, true, true
	sawValue := false
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		sawValue = true
		if canBeBool {
			lower := strings.ToLower(cell)
			canBeBool = lower == "true" || lower == "false"
		}
		if canBeInt {
			_, err := strconv.ParseInt(cell, 10, 64)
			canBeInt = err == nil
		}
		if canBeFloat {
			_, err := strconv.ParseFloat(cell, 64)
			canBeFloat = err == nil
		}
	}
	if !sawValue {
		return series.NewNullable(name, cells, valid, r.mem)
	}

	switch {
	case canBeBool:
		vals := make([]bool, len(cells))
		for i, cell := range cells {
			if valid[i] {
				vals[i] = strings.EqualFold(cell, "true")
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	case canBeInt:
		vals := make([]int64, len(cells))
		for i, cell := range cells {
			if valid[i] {
				vals[i], _ = strconv.ParseInt(cell, 10, 64)
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	case canBeFloat:
		vals := make([]float64, len(cells))
		for i, cell := range cells {
			if valid[i] {
				vals[i], _ = strconv.ParseFloat(cell, 64)
			}
		}
		return series.NewNullable(name, vals, valid, r.mem)
	default:
		return series.NewNullable(name, cells, valid, r.mem)
	}
}

// Write renders the DataFrame as CSV. Null slots render as the configured
// null token (empty by default).
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter
	defer csvWriter.Flush()

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return errors.Wrap(err, "writing csv header")
		}
	}

	names := df.Columns()
	for i := 0; i < df.Len(); i++ {
		row := make([]string, len(names))
		for j, name := range names {
			col, _ := df.Column(name)
			row[j] = w.renderCell(col, i)
		}
		if err := csvWriter.Write(row); err != nil {
			return errors.Wrapf(err, "writing csv row %d", i)
		}
	}
	if err := csvWriter.Error(); err != nil {
		return errors.Wrap(err, "flushing csv")
	}
	return nil
}

func (w *CSVWriter) renderCell(col dataframe.ISeries, row int) string {
	if col.IsNull(row) {
		return w.options.NullToken
	}

	arr := col.Array()
	defer arr.Release()

	switch a := arr.(type) {
	case *array.String:
		return a.Value(row)
	case *array.Int64:
		return strconv.FormatInt(a.Value(row), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(row)), 10)
	case *array.Int16:
		return strconv.FormatInt(int64(a.Value(row)), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(row), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(row)), 'g', -1, 32)
	case *array.Boolean:
		return strconv.FormatBool(a.Value(row))
	default:
		return a.ValueStr(row)
	}
}
