package fgb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"

	geometa "github.com/tingold/orb-geometa"
)

// buildColumns creates the writer columns for cols.
func buildColumns(cols []Column, builder *flatbuffers.Builder) []*writer.Column {
	out := make([]*writer.Column, 0, len(cols))
	for _, c := range cols {
		col := writer.NewColumn(builder)
		col.SetName(c.Name)
		col.SetTitle(c.Name)
		col.SetType(c.Type)
		col.SetNullable(true)
		out = append(out, col)
	}
	return out
}

// encodeProperties encodes values as a FlatGeobuf property buffer: for each
// non-nil value a little-endian uint16 column index followed by the value.
// Strings, JSON, date-times and binaries are prefixed with their uint32
// byte length.
func encodeProperties(cols []Column, values []any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	if len(values) != len(cols) {
		return nil, fmt.Errorf("%w: %d values for %d columns", ErrColumnMismatch, len(values), len(cols))
	}

	var buf bytes.Buffer
	for i, v := range values {
		if v == nil {
			continue
		}
		_ = binary.Write(&buf, binary.LittleEndian, uint16(i))
		if err := writeValue(&buf, cols[i], v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, col Column, v any) error {
	le := binary.LittleEndian
	switch col.Type {
	case flattypes.ColumnTypeBool:
		b, ok := v.(bool)
		if !ok {
			return mismatch(col, v)
		}
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case flattypes.ColumnTypeInt:
		n, ok := toInt64(v)
		if !ok {
			return mismatch(col, v)
		}
		_ = binary.Write(buf, le, int32(n))
	case flattypes.ColumnTypeLong:
		n, ok := toInt64(v)
		if !ok {
			return mismatch(col, v)
		}
		_ = binary.Write(buf, le, n)
	case flattypes.ColumnTypeDouble:
		f, ok := toFloat64(v)
		if !ok {
			return mismatch(col, v)
		}
		_ = binary.Write(buf, le, f)
	case flattypes.ColumnTypeString, flattypes.ColumnTypeJson, flattypes.ColumnTypeDateTime:
		s, ok := v.(string)
		if !ok {
			return mismatch(col, v)
		}
		_ = binary.Write(buf, le, uint32(len(s)))
		buf.WriteString(s)
	case flattypes.ColumnTypeBinary:
		b, ok := v.([]byte)
		if !ok {
			return mismatch(col, v)
		}
		_ = binary.Write(buf, le, uint32(len(b)))
		buf.Write(b)
	default:
		return fmt.Errorf("%w: unsupported column type %s", ErrColumnMismatch, flattypes.EnumNamesColumnType[col.Type])
	}
	return nil
}

func mismatch(col Column, v any) error {
	return fmt.Errorf("%w: column %q (%s) cannot hold %T", ErrColumnMismatch,
		col.Name, flattypes.EnumNamesColumnType[col.Type], v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// decodeProperties decodes a property buffer into column name to display
// string. Decoding stops at the first truncated or unknown value.
func decodeProperties(data []byte, cols []ColumnInfo) map[string]string {
	props := make(map[string]string, len(cols))
	for offset := 0; offset+2 <= len(data); {
		idx := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
		if idx >= len(cols) {
			break
		}
		s, n := readValue(data[offset:], cols[idx].Type)
		if n == 0 {
			break
		}
		props[cols[idx].Name] = s
		offset += n
	}
	return props
}

// readValue renders one value as a string and returns the bytes consumed,
// or 0 when data is too short.
func readValue(data []byte, t flattypes.ColumnType) (string, int) {
	le := binary.LittleEndian
	fixed := func(n int) bool { return len(data) >= n }

	switch t {
	case flattypes.ColumnTypeBool:
		if !fixed(1) {
			return "", 0
		}
		if data[0] != 0 {
			return "1", 1
		}
		return "0", 1
	case flattypes.ColumnTypeByte:
		if !fixed(1) {
			return "", 0
		}
		return strconv.Itoa(int(int8(data[0]))), 1
	case flattypes.ColumnTypeUByte:
		if !fixed(1) {
			return "", 0
		}
		return strconv.Itoa(int(data[0])), 1
	case flattypes.ColumnTypeShort:
		if !fixed(2) {
			return "", 0
		}
		return strconv.Itoa(int(int16(le.Uint16(data)))), 2
	case flattypes.ColumnTypeUShort:
		if !fixed(2) {
			return "", 0
		}
		return strconv.Itoa(int(le.Uint16(data))), 2
	case flattypes.ColumnTypeInt:
		if !fixed(4) {
			return "", 0
		}
		return strconv.Itoa(int(int32(le.Uint32(data)))), 4
	case flattypes.ColumnTypeUInt:
		if !fixed(4) {
			return "", 0
		}
		return strconv.FormatUint(uint64(le.Uint32(data)), 10), 4
	case flattypes.ColumnTypeLong:
		if !fixed(8) {
			return "", 0
		}
		return strconv.FormatInt(int64(le.Uint64(data)), 10), 8
	case flattypes.ColumnTypeULong:
		if !fixed(8) {
			return "", 0
		}
		return strconv.FormatUint(le.Uint64(data), 10), 8
	case flattypes.ColumnTypeFloat:
		if !fixed(4) {
			return "", 0
		}
		return strconv.FormatFloat(float64(math.Float32frombits(le.Uint32(data))), 'g', -1, 32), 4
	case flattypes.ColumnTypeDouble:
		if !fixed(8) {
			return "", 0
		}
		return strconv.FormatFloat(math.Float64frombits(le.Uint64(data)), 'g', -1, 64), 8
	case flattypes.ColumnTypeString, flattypes.ColumnTypeJson, flattypes.ColumnTypeDateTime, flattypes.ColumnTypeBinary:
		if !fixed(4) {
			return "", 0
		}
		n := int(le.Uint32(data))
		if len(data) < 4+n {
			return "", 0
		}
		if t == flattypes.ColumnTypeBinary {
			return fmt.Sprintf("%x", data[4:4+n]), 4 + n
		}
		return string(data[4 : 4+n]), 4 + n
	default:
		return "", 0
	}
}

// fieldType maps FlatGeobuf column types to OGR field type names.
func fieldType(t flattypes.ColumnType) string {
	switch t {
	case flattypes.ColumnTypeBool, flattypes.ColumnTypeByte, flattypes.ColumnTypeUByte,
		flattypes.ColumnTypeShort, flattypes.ColumnTypeUShort, flattypes.ColumnTypeInt:
		return geometa.FieldInteger
	case flattypes.ColumnTypeUInt, flattypes.ColumnTypeLong, flattypes.ColumnTypeULong:
		return geometa.FieldInteger64
	case flattypes.ColumnTypeFloat, flattypes.ColumnTypeDouble:
		return geometa.FieldReal
	case flattypes.ColumnTypeDateTime:
		return geometa.FieldDateTime
	case flattypes.ColumnTypeBinary:
		return geometa.FieldBinary
	default:
		return geometa.FieldString
	}
}
