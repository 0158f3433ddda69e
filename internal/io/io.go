// Package io reads and writes DataFrames in CSV, JSON and Parquet form.
//
// CSV and JSON readers infer column types from the text and map missing
// values to nulls; the Parquet codec works directly on Arrow arrays and
// round-trips nested columns (including t-digest sketch columns) without
// conversion.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/dataframe"
)

// DataReader reads a DataFrame from some source.
type DataReader interface {
	Read() (*dataframe.DataFrame, error)
}

// DataWriter writes a DataFrame to some destination.
type DataWriter interface {
	Write(df *dataframe.DataFrame) error
}

// CSVOptions configures CSV reading and writing.
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma).
	Delimiter rune
	// Comment is the comment character (0 disables comments).
	Comment rune
	// Header indicates whether the first row carries column names.
	Header bool
	// NullToken is the text that reads and writes as a null value, in
	// addition to the empty field.
	NullToken string
}

// DefaultCSVOptions returns the default CSV options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Header:    true,
	}
}

// ParquetOptions configures Parquet reading and writing.
type ParquetOptions struct {
	// Compression names the codec: snappy, gzip, zstd, lz4 or
	// uncompressed.
	Compression string
	// BatchSize is the row-group batch size for writes.
	BatchSize int
}

// DefaultParquetOptions returns the default Parquet options.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   1024,
	}
}

// NewCSVReader creates a CSV reader over r.
func NewCSVReader(r io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &CSVReader{reader: r, options: options, mem: mem}
}

// NewCSVWriter creates a CSV writer to w.
func NewCSVWriter(w io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{writer: w, options: options}
}

// NewJSONReader creates a reader of a JSON array of record objects.
func NewJSONReader(r io.Reader, mem memory.Allocator) *JSONReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &JSONReader{reader: r, mem: mem}
}

// NewJSONWriter creates a writer emitting a JSON array of record objects.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{writer: w}
}

// NewParquetReader creates a Parquet reader over r.
func NewParquetReader(r io.Reader, mem memory.Allocator) *ParquetReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &ParquetReader{reader: r, mem: mem}
}

// NewParquetWriter creates a Parquet writer to w.
func NewParquetWriter(w io.Writer, options ParquetOptions, mem memory.Allocator) *ParquetWriter {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &ParquetWriter{writer: w, options: options, mem: mem}
}
