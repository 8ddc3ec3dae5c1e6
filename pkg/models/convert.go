package models

import "strconv"

// AsInt coerces a stored document value to int. The document store hands
// numbers back as int32, int64 or float64 depending on how they were
// written, and older documents kept ids as strings.
func AsInt(v interface{}) int {
	return int(AsInt64(v))
}

// AsInt64 coerces a stored document value to int64.
func AsInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
