package parser

import "strconv"

// Typed probes over untyped JSON. Bootstrap payloads mined from listing
// pages are arbitrarily shaped; these helpers keep every lookup total —
// they return ok=false instead of panicking, whatever the value holds.

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asNumber accepts JSON numbers and numeric strings, both of which appear
// for the same field across cache entries.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// dig walks a path of object keys, returning the value at the end of the
// path if every step exists.
func dig(v any, path ...string) (any, bool) {
	current := v
	for _, key := range path {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func digString(v any, path ...string) (string, bool) {
	val, ok := dig(v, path...)
	if !ok {
		return "", false
	}
	return asString(val)
}

func digNumber(v any, path ...string) (float64, bool) {
	val, ok := dig(v, path...)
	if !ok {
		return 0, false
	}
	return asNumber(val)
}
