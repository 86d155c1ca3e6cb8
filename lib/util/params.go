package util

import (
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// ParamString returns the trimmed parameter or def when it is missing or blank
func ParamString(params map[string]string, key, def string) string {
	if v := strings.TrimSpace(params[key]); v != "" {
		return v
	}
	return def
}

// ParamInt returns the parameter as a positive int or def when missing or invalid
func ParamInt(params map[string]string, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(params[key]))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// ParamLocation loads an IANA time zone, falling back to UTC
func ParamLocation(params map[string]string, key string) *time.Location {
	name := ParamString(params, key, "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
