package intake

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Present reports whether a field value counts as filled in. nil and nil
// pointers are absent, numbers are present unless NaN, strings are present
// unless blank, and every other value (false included) is present.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case float64:
		return !math.IsNaN(x)
	case float32:
		return !math.IsNaN(float64(x))
	case decimal.Decimal, bool, int, int32, int64:
		return true
	case Date:
		return !x.IsZero()
	case time.Time:
		return !x.IsZero()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		return Present(rv.Elem().Interface())
	}
	return true
}

// Progress is the completion of one section.
type Progress struct {
	Filled int `json:"filled"`
	Total  int `json:"total"`
	Pct    int `json:"pct"`
}

func progress(filled, total int) Progress {
	p := Progress{Filled: filled, Total: total}
	if total > 0 {
		p.Pct = int(math.Round(float64(filled) / float64(total) * 100))
	}
	return p
}

// Completion counts how many of the required fields are present. A section
// with no required fields reports 0%.
func Completion(fields map[string]any, required []string) Progress {
	filled := 0
	for _, name := range required {
		if Present(fields[name]) {
			filled++
		}
	}
	return progress(filled, len(required))
}

// IsComplete reports whether every required field is present.
func IsComplete(fields map[string]any, required []string) bool {
	for _, name := range required {
		if !Present(fields[name]) {
			return false
		}
	}
	return true
}

// truthy reports whether v is a set boolean flag.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case *bool:
		return x != nil && *x
	}
	return false
}
