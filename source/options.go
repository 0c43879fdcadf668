package source

import "strconv"

// Options are driver-specific settings.
type Options map[string]interface{}

// GetString returns a string option, or def if it is not set.
func (o Options) GetString(key string, def string) string {
	if v, ok := o[key]; ok {
		switch v := v.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}
	}
	return def
}

// GetInt returns an integer option, or def if it is not set or has a wrong type.
func (o Options) GetInt(key string, def int) int {
	if v, ok := o[key]; ok {
		switch v := v.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return def
}

// GetBool returns a boolean option, or def if it is not set or has a wrong type.
func (o Options) GetBool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		switch v := v.(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	}
	return def
}
