package eventsource

import (
	"encoding/json"
	"reflect"
)

// canonical normalizes a payload for EOS comparison. Strings holding valid
// JSON are decoded, other strings are kept verbatim and non-strings are
// passed through a JSON round trip so that maps, structs and numbers
// compare by value.
func canonical(v any) any {
	if s, ok := v.(string); ok {
		if !json.Valid([]byte(s)) {
			return s
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return s
		}
		return out
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// sameCanonical reports whether a and b are already-canonical equal values.
func sameCanonical(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
