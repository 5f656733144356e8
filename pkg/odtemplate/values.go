package odtemplate

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Values holds caller data keyed by value category, then by field name.
//
// Example:
//
//	values := Values{
//	    "string": {"customer": "ACME Corp"},
//	    "float":  {"total": 99.5},
//	    "date":   {"due": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
//	}
type Values map[string]map[string]any

// Currency is an amount in integer minor units (cents).
type Currency int64

// Typed forces the value category of a single value, e.g. inside table rows.
type Typed struct {
	Type  string
	Value any
}

// Resolution is the coerced value to store in a field declaration.
type Resolution struct {
	// Type is the storage type the value was coerced to.
	Type  string
	Value any
}

// String formats the value for an office value attribute.
func (r Resolution) String() string {
	switch v := r.Value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// storageAliases maps value categories onto the declared type they are stored
// as.
var storageAliases = map[string]string{
	"date":     "float",
	"currency": "float",
}

var knownTypes = map[string]bool{
	"string":     true,
	"float":      true,
	"percentage": true,
	"currency":   true,
	"date":       true,
	"boolean":    true,
}

// Resolve finds the caller value for a field declared as name with type
// declaredType and coerces it. ok is false when the field should keep its
// authored value.
func Resolve(name, declaredType string, values Values) (res Resolution, ok bool) {
	if !knownTypes[declaredType] {
		return Resolution{}, false
	}
	for _, category := range candidateCategories(declaredType, values) {
		v, present := values[category][name]
		if !present {
			continue
		}
		coerced, ok := coerce(category, v)
		if !ok {
			continue
		}
		return Resolution{Type: storageType(category), Value: coerced}, true
	}
	return Resolution{}, false
}

// candidateCategories lists the categories whose values may fill a field of
// declaredType: the type itself first, then its aliases in sorted order.
func candidateCategories(declaredType string, values Values) []string {
	categories := []string{declaredType}
	var aliases []string
	for category := range values {
		if category != declaredType && storageAliases[category] == declaredType {
			aliases = append(aliases, category)
		}
	}
	sort.Strings(aliases)
	return append(categories, aliases...)
}

func storageType(category string) string {
	if alias, ok := storageAliases[category]; ok {
		return alias
	}
	return category
}

// FlatValues sorts an untyped map into categories by the Go type of each
// value. Values of unsupported types are dropped.
func FlatValues(flat map[string]any) Values {
	values := make(Values)
	for name, v := range flat {
		category, raw := categorize(v)
		if category == "" {
			continue
		}
		if values[category] == nil {
			values[category] = make(map[string]any)
		}
		values[category][name] = raw
	}
	return values
}

// categorize infers the value category of v and unwraps Typed values.
func categorize(v any) (string, any) {
	switch val := v.(type) {
	case Typed:
		return val.Type, val.Value
	case *Typed:
		return val.Type, val.Value
	case string:
		return "string", val
	case bool:
		return "boolean", val
	case time.Time:
		return "date", val
	case Currency:
		return "currency", val
	}
	if _, ok := toFloat(v); ok {
		return "float", v
	}
	return "", nil
}

func coerce(category string, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch category {
	case "string":
		if s, ok := v.(string); ok {
			return s, true
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), true
		}
		return fmt.Sprint(v), true
	case "float", "percentage":
		return toFloat(v)
	case "currency":
		return toCurrency(v)
	case "date":
		return toSerialDay(v)
	case "boolean":
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			return parsed, err == nil
		}
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case Currency:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toCurrency(v any) (any, bool) {
	minor, ok := toFloat(v)
	if !ok || minor != math.Trunc(minor) {
		return nil, false
	}
	return minor / 100, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toSerialDay(v any) (any, bool) {
	switch t := v.(type) {
	case time.Time:
		return SerialDay(t), true
	case *time.Time:
		if t == nil {
			return nil, false
		}
		return SerialDay(*t), true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return SerialDay(parsed), true
			}
		}
	}
	return nil, false
}

const (
	secondsPerDay = 86400
	// days from the serial epoch (1899-12-31) to 1970-01-01
	unixEpochSerial = 25568
)

// leapBugCutover is the first day after 1900-02-29, a date that never
// existed but is counted by the spreadsheet serial scheme.
var leapBugCutover = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)

// SerialDay converts t to a spreadsheet serial day number: days since
// 1899-12-31 with the time of day as fraction, plus one for every date from
// 1900-03-01 on. 1970-01-01T00:00:00Z is 25569.
func SerialDay(t time.Time) float64 {
	t = t.UTC()
	serial := float64(t.Unix())/secondsPerDay + unixEpochSerial + float64(t.Nanosecond())/1e9/secondsPerDay
	if !t.Before(leapBugCutover) {
		serial++
	}
	return serial
}
