package indexfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
)

// blockSchema is the layout of the exported block table, one row per block.
var blockSchema = arrow.NewSchema([]arrow.Field{
	{Name: "index", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "i", Type: arrow.PrimitiveTypes.Int32},
	{Name: "j", Type: arrow.PrimitiveTypes.Int32},
	{Name: "k", Type: arrow.PrimitiveTypes.Int32},
	{Name: "rel", Type: arrow.PrimitiveTypes.Float64},
	{Name: "empty", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "offset", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "data_bytes", Type: arrow.PrimitiveTypes.Uint64},
}, nil)

// WriteArrow writes the block table of idx to w as an Arrow IPC stream holding a single
// record batch.
func WriteArrow(w io.Writer, idx *IndexFile) error {
	pool := memory.NewGoAllocator()

	indexBuilder := array.NewUint64Builder(pool)
	iBuilder := array.NewInt32Builder(pool)
	jBuilder := array.NewInt32Builder(pool)
	kBuilder := array.NewInt32Builder(pool)
	relBuilder := array.NewFloat64Builder(pool)
	emptyBuilder := array.NewBooleanBuilder(pool)
	offsetBuilder := array.NewUint64Builder(pool)
	bytesBuilder := array.NewUint64Builder(pool)
	builders := []array.Builder{indexBuilder, iBuilder, jBuilder, kBuilder,
		relBuilder, emptyBuilder, offsetBuilder, bytesBuilder}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, block := range idx.Blocks {
		indexBuilder.Append(block.Index)
		iBuilder.Append(block.IJK[0])
		jBuilder.Append(block.IJK[1])
		kBuilder.Append(block.IJK[2])
		relBuilder.Append(block.Relevance)
		emptyBuilder.Append(block.Empty)
		offsetBuilder.Append(block.Offset)
		bytesBuilder.Append(block.DataBytes)
	}

	columns := make([]arrow.Array, len(builders))
	for i, b := range builders {
		columns[i] = b.NewArray()
	}
	defer func() {
		for _, c := range columns {
			c.Release()
		}
	}()

	record := array.NewRecord(blockSchema, columns, int64(len(idx.Blocks)))
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(blockSchema), ipc.WithAllocator(pool))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("unable to write arrow block table: %w", err)
	}
	return writer.Close()
}

// EncodeArrow returns the Arrow IPC stream of the block table of idx.
func EncodeArrow(idx *IndexFile) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArrow(&buf, idx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
