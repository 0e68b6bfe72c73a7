package vdom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// IsEventHandler reports whether a prop is an event handler: its name starts
// with "on" (any case) and its value is a function.
func IsEventHandler(key string, value any) bool {
	if len(key) <= 2 || !strings.EqualFold(key[:2], "on") || value == nil {
		return false
	}
	return reflect.TypeOf(value).Kind() == reflect.Func
}

// EventName returns the event name for a handler prop ("onClick" -> "click").
func EventName(key string) string {
	if len(key) <= 2 {
		return ""
	}
	return strings.ToLower(key[2:])
}

// IsScalar reports whether v is a valid text payload.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// ValuesEqual compares two prop or text values for equality.
// Scalars compare by type and value; other values use reflect.DeepEqual.
// Function values are equal only when both are nil.
func ValuesEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// ValueString converts a prop or text value to its string form.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
