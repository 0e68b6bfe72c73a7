package protocol

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/vango-dev/vpatch/internal/errors"
)

// Value tags.
const (
	valueNil     byte = 0x00
	valueString  byte = 0x01
	valueFalse   byte = 0x02
	valueTrue    byte = 0x03
	valueInt     byte = 0x04
	valueFloat   byte = 0x05
	valueHandler byte = 0x06
	valueJSON    byte = 0x07
)

// RemoteHandler stands in for an event handler decoded from the wire.
type RemoteHandler func()

func noopHandler() {}

// WriteValue appends a tagged attribute or text value. Functions encode as a
// handler marker; values that are neither scalar nor functions encode as JSON.
func (e *Encoder) WriteValue(v any) error {
	switch val := v.(type) {
	case nil:
		e.WriteByte(valueNil)
	case string:
		e.WriteByte(valueString)
		e.WriteString(val)
	case bool:
		if val {
			e.WriteByte(valueTrue)
		} else {
			e.WriteByte(valueFalse)
		}
	case int:
		e.writeInt(int64(val))
	case int8:
		e.writeInt(int64(val))
	case int16:
		e.writeInt(int64(val))
	case int32:
		e.writeInt(int64(val))
	case int64:
		e.writeInt(val)
	case uint:
		e.writeUint(uint64(val))
	case uint8:
		e.writeInt(int64(val))
	case uint16:
		e.writeInt(int64(val))
	case uint32:
		e.writeInt(int64(val))
	case uint64:
		e.writeUint(val)
	case float32:
		e.WriteByte(valueFloat)
		e.WriteFloat64(float64(val))
	case float64:
		e.WriteByte(valueFloat)
		e.WriteFloat64(val)
	default:
		if reflect.ValueOf(v).Kind() == reflect.Func {
			e.WriteByte(valueHandler)
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return errors.New("E212").WithDetailf("value of type %T is not encodable", v).Wrap(err)
		}
		e.WriteByte(valueJSON)
		e.WriteLenBytes(data)
	}
	return nil
}

func (e *Encoder) writeInt(v int64) {
	e.WriteByte(valueInt)
	e.WriteSvarint(v)
}

// writeUint encodes unsigned values above MaxInt64 as floats.
func (e *Encoder) writeUint(v uint64) {
	if v > math.MaxInt64 {
		e.WriteByte(valueFloat)
		e.WriteFloat64(float64(v))
		return
	}
	e.writeInt(int64(v))
}

// ReadValue reads a tagged value. Integers decode as int, floats as float64,
// handler markers as RemoteHandler and JSON documents as their generic Go
// form.
func (d *Decoder) ReadValue() (any, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valueNil:
		return nil, nil
	case valueString:
		return d.ReadString()
	case valueFalse:
		return false, nil
	case valueTrue:
		return true, nil
	case valueInt:
		v, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		if v > math.MaxInt || v < math.MinInt {
			return float64(v), nil
		}
		return int(v), nil
	case valueFloat:
		return d.ReadFloat64()
	case valueHandler:
		return RemoteHandler(noopHandler), nil
	case valueJSON:
		data, err := d.ReadLenBytes()
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.New("E211").WithDetail("malformed JSON value").Wrap(err)
		}
		return v, nil
	}
	return nil, errors.New("E211").WithDetailf("unknown value tag 0x%02x", tag)
}
