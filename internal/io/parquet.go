package io

import (
	"bytes"
	"context"
	stdio "io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pkg/errors"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/series"
)

// ParquetReader reads a Parquet stream into a DataFrame. Columns keep
// their Arrow types as stored, so nested columns (quantile lists, t-digest
// structs) survive the round trip.
type ParquetReader struct {
	reader stdio.Reader
	mem    memory.Allocator
}

// ParquetWriter writes a DataFrame as a Parquet stream.
type ParquetWriter struct {
	writer  stdio.Writer
	options ParquetOptions
	mem     memory.Allocator
}

// Read loads the whole stream into one DataFrame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	data, err := stdio.ReadAll(r.reader)
	if err != nil {
		return nil, errors.Wrap(err, "reading parquet stream")
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "opening parquet reader")
	}
	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, errors.Wrap(err, "opening arrow reader")
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "reading parquet table")
	}
	defer table.Release()

	return r.tableToDataFrame(table)
}

// tableToDataFrame wraps each table column as a series, concatenating
// chunked columns into one contiguous array first.
func (r *ParquetReader) tableToDataFrame(table arrow.Table) (*dataframe.DataFrame, error) {
	columns := make([]dataframe.ISeries, 0, table.NumCols())
	for i := 0; i < int(table.NumCols()); i++ {
		field := table.Schema().Field(i)
		chunked := table.Column(i).Data()

		arr, err := flattenChunks(field.Type, chunked.Chunks(), r.mem)
		if err != nil {
			for _, col := range columns {
				col.Release()
			}
			return nil, errors.Wrapf(err, "column %s", field.Name)
		}
		columns = append(columns, series.NewFromArrow(field.Name, arr))
		arr.Release()
	}
	return dataframe.New(columns...), nil
}

func flattenChunks(dt arrow.DataType, chunks []arrow.Array, mem memory.Allocator) (arrow.Array, error) {
	switch len(chunks) {
	case 0:
		builder := array.NewBuilder(mem, dt)
		defer builder.Release()
		return builder.NewArray(), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	default:
		return array.Concatenate(chunks, mem)
	}
}

// Write stores the DataFrame as one Parquet table.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	fields := make([]arrow.Field, 0, df.Width())
	arrs := make([]arrow.Array, 0, df.Width())
	defer func() {
		for _, arr := range arrs {
			arr.Release()
		}
	}()
	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		arr := col.Array()
		fields = append(fields, arrow.Field{Name: name, Type: arr.DataType(), Nullable: true})
		arrs = append(arrs, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	record := array.NewRecord(schema, arrs, int64(df.Len()))
	defer record.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(w.compression()),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(w.mem))

	writer, err := pqarrow.NewFileWriter(schema, w.writer, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, "opening parquet writer")
	}
	if err := writer.WriteTable(table, int64(df.Len())); err != nil {
		writer.Close()
		return errors.Wrap(err, "writing parquet table")
	}
	return errors.Wrap(writer.Close(), "closing parquet writer")
}

func (w *ParquetWriter) compression() compress.Compression {
	switch w.options.Compression {
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}
