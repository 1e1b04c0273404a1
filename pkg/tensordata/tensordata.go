// Package tensordata reads the payload of ONNX tensors: which value field
// carries it, how many elements it holds, and where external data lives.
package tensordata

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
	"github.com/zerfoo/zverify/internal/onnx"
)

// Field names as they appear in onnx.proto.
const (
	FieldFloat  = "float_data"
	FieldInt32  = "int32_data"
	FieldString = "string_data"
	FieldInt64  = "int64_data"
	FieldRaw    = "raw_data"
	FieldDouble = "double_data"
	FieldUint64 = "uint64_data"
)

// Field is a populated value field of a tensor.
type Field struct {
	Name  string
	Count int
}

// Fields lists the value fields of t that hold data. raw_data counts as
// populated when it is present, even if empty.
func Fields(t *onnx.TensorProto) []Field {
	var fields []Field
	add := func(name string, n int) {
		if n > 0 {
			fields = append(fields, Field{Name: name, Count: n})
		}
	}
	add(FieldFloat, len(t.GetFloatData()))
	add(FieldInt32, len(t.GetInt32Data()))
	add(FieldString, len(t.GetStringData()))
	add(FieldInt64, len(t.GetInt64Data()))
	if t.GetRawData() != nil {
		fields = append(fields, Field{Name: FieldRaw, Count: len(t.GetRawData())})
	}
	add(FieldDouble, len(t.GetDoubleData()))
	add(FieldUint64, len(t.GetUint64Data()))
	return fields
}

// TypedField returns the repeated field that stores values of dt.
func TypedField(dt onnx.TensorProto_DataType) string {
	switch dt {
	case onnx.TensorProto_FLOAT, onnx.TensorProto_COMPLEX64:
		return FieldFloat
	case onnx.TensorProto_STRING:
		return FieldString
	case onnx.TensorProto_INT64:
		return FieldInt64
	case onnx.TensorProto_DOUBLE, onnx.TensorProto_COMPLEX128:
		return FieldDouble
	case onnx.TensorProto_UINT32, onnx.TensorProto_UINT64:
		return FieldUint64
	}
	return FieldInt32
}

// ElemSize is the byte width of one element of dt in raw_data. It is 0 for
// STRING and for the 4-bit types, which pack two elements per byte.
func ElemSize(dt onnx.TensorProto_DataType) int {
	switch dt {
	case onnx.TensorProto_BOOL, onnx.TensorProto_INT8, onnx.TensorProto_UINT8,
		onnx.TensorProto_FLOAT8E4M3FN, onnx.TensorProto_FLOAT8E4M3FNUZ,
		onnx.TensorProto_FLOAT8E5M2, onnx.TensorProto_FLOAT8E5M2FNUZ:
		return 1
	case onnx.TensorProto_INT16, onnx.TensorProto_UINT16, onnx.TensorProto_FLOAT16, onnx.TensorProto_BFLOAT16:
		return 2
	case onnx.TensorProto_FLOAT, onnx.TensorProto_INT32, onnx.TensorProto_UINT32:
		return 4
	case onnx.TensorProto_INT64, onnx.TensorProto_UINT64, onnx.TensorProto_DOUBLE, onnx.TensorProto_COMPLEX64:
		return 8
	case onnx.TensorProto_COMPLEX128:
		return 16
	}
	return 0
}

func isPacked4(dt onnx.TensorProto_DataType) bool {
	return dt == onnx.TensorProto_INT4 || dt == onnx.TensorProto_UINT4 || dt == onnx.TensorProto_FLOAT4E2M1
}

// NumElements is the product of dims. An empty dims list is a scalar.
func NumElements(dims []int64) (int64, error) {
	n := int64(1)
	for i, d := range dims {
		if d < 0 {
			return 0, errors.Errorf("dimension %d is negative (%d)", i, d)
		}
		if d != 0 && n > math.MaxInt64/d {
			return 0, errors.Errorf("element count overflows at dimension %d", i)
		}
		n *= d
	}
	return n, nil
}

// ByteLen is the raw_data length of n elements of dt, and false for STRING
// or undefined types.
func ByteLen(dt onnx.TensorProto_DataType, n int64) (int64, bool) {
	if isPacked4(dt) {
		return (n + 1) / 2, true
	}
	size := ElemSize(dt)
	if size == 0 {
		return 0, false
	}
	return n * int64(size), true
}

// FieldCount is the number of entries the typed field must hold for n
// elements of dt.
func FieldCount(dt onnx.TensorProto_DataType, n int64) int64 {
	switch {
	case dt == onnx.TensorProto_COMPLEX64 || dt == onnx.TensorProto_COMPLEX128:
		return 2 * n
	case isPacked4(dt):
		return (n + 1) / 2
	}
	return n
}

// IsFloat reports whether dt is a floating point type.
func IsFloat(dt onnx.TensorProto_DataType) bool {
	switch dt {
	case onnx.TensorProto_FLOAT, onnx.TensorProto_DOUBLE, onnx.TensorProto_FLOAT16, onnx.TensorProto_BFLOAT16:
		return true
	}
	return false
}

// Int64s returns the values of an integer or BOOL tensor held inline.
func Int64s(t *onnx.TensorProto) ([]int64, error) {
	dt := onnx.TensorProto_DataType(t.GetDataType())
	switch dt {
	case onnx.TensorProto_INT64:
		if t.GetInt64Data() != nil {
			return t.GetInt64Data(), nil
		}
	case onnx.TensorProto_UINT32, onnx.TensorProto_UINT64:
		if t.GetUint64Data() != nil {
			data := make([]int64, len(t.GetUint64Data()))
			for i, v := range t.GetUint64Data() {
				data[i] = int64(v)
			}
			return data, nil
		}
	case onnx.TensorProto_INT32, onnx.TensorProto_INT16, onnx.TensorProto_INT8,
		onnx.TensorProto_UINT16, onnx.TensorProto_UINT8, onnx.TensorProto_BOOL:
		if t.GetInt32Data() != nil {
			data := make([]int64, len(t.GetInt32Data()))
			for i, v := range t.GetInt32Data() {
				data[i] = int64(v)
			}
			return data, nil
		}
	default:
		return nil, errors.Errorf("tensor %q is not an integer tensor but %s", t.GetName(), dt)
	}

	raw := t.GetRawData()
	size := ElemSize(dt)
	if len(raw)%size != 0 {
		return nil, errors.Errorf("raw_data length %d is not a multiple of %d for %s", len(raw), size, dt)
	}
	data := make([]int64, len(raw)/size)
	for i := range data {
		chunk := raw[i*size : (i+1)*size]
		switch dt {
		case onnx.TensorProto_INT64:
			data[i] = int64(binary.LittleEndian.Uint64(chunk))
		case onnx.TensorProto_UINT64:
			data[i] = int64(binary.LittleEndian.Uint64(chunk))
		case onnx.TensorProto_INT32:
			data[i] = int64(int32(binary.LittleEndian.Uint32(chunk)))
		case onnx.TensorProto_UINT32:
			data[i] = int64(binary.LittleEndian.Uint32(chunk))
		case onnx.TensorProto_INT16:
			data[i] = int64(int16(binary.LittleEndian.Uint16(chunk)))
		case onnx.TensorProto_UINT16:
			data[i] = int64(binary.LittleEndian.Uint16(chunk))
		case onnx.TensorProto_INT8:
			data[i] = int64(int8(chunk[0]))
		default:
			data[i] = int64(chunk[0])
		}
	}
	return data, nil
}

// Float64s returns the values of a FLOAT, DOUBLE, FLOAT16 or BFLOAT16 tensor
// held inline.
func Float64s(t *onnx.TensorProto) ([]float64, error) {
	dt := onnx.TensorProto_DataType(t.GetDataType())
	raw := t.GetRawData()
	switch dt {
	case onnx.TensorProto_FLOAT:
		if raw == nil {
			data := make([]float64, len(t.GetFloatData()))
			for i, v := range t.GetFloatData() {
				data[i] = float64(v)
			}
			return data, nil
		}
	case onnx.TensorProto_DOUBLE:
		if raw == nil {
			return t.GetDoubleData(), nil
		}
	case onnx.TensorProto_FLOAT16, onnx.TensorProto_BFLOAT16:
		if raw == nil {
			data := make([]float64, len(t.GetInt32Data()))
			for i, v := range t.GetInt32Data() {
				data[i] = halfToFloat64(dt, uint16(v))
			}
			return data, nil
		}
	default:
		return nil, errors.Errorf("tensor %q is not a floating point tensor but %s", t.GetName(), dt)
	}

	size := ElemSize(dt)
	if len(raw)%size != 0 {
		return nil, errors.Errorf("raw_data length %d is not a multiple of %d for %s", len(raw), size, dt)
	}
	data := make([]float64, len(raw)/size)
	for i := range data {
		chunk := raw[i*size : (i+1)*size]
		switch dt {
		case onnx.TensorProto_FLOAT:
			data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
		case onnx.TensorProto_DOUBLE:
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk))
		default:
			data[i] = halfToFloat64(dt, binary.LittleEndian.Uint16(chunk))
		}
	}
	return data, nil
}

func halfToFloat64(dt onnx.TensorProto_DataType, bits uint16) float64 {
	if dt == onnx.TensorProto_BFLOAT16 {
		return float64(math.Float32frombits(uint32(bits) << 16))
	}
	return float64(float16.Frombits(bits).Float32())
}
