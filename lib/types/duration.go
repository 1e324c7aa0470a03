package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const Day = 24 * time.Hour

// Duration is a configured timeout.
// Yaml takes go duration with optional leading days ("1d12h")
// or bare number of seconds.
type Duration time.Duration

// Std returns d as time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String prints d without zero tail units, e.g. 1d2h or 90s
func (d Duration) String() string {
	v := time.Duration(d)
	if v == 0 {
		return "0s"
	}
	prefix := ""
	if v >= Day {
		prefix = strconv.FormatInt(int64(v/Day), 10) + "d"
		v %= Day
		if v == 0 {
			return prefix
		}
	}
	s := v.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return prefix + s
}

// ParseDuration parses non negative duration
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return Duration(time.Duration(n) * time.Second), nil
	}

	var days time.Duration
	if i := strings.IndexByte(s, 'd'); i > 0 {
		n, err := strconv.ParseUint(s[:i], 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid days in %q", s)
		}
		days, s = time.Duration(n)*Day, s[i+1:]
		if s == "" {
			return Duration(days), nil
		}
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return Duration(days + v), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration: %w", value.Line, err)
	}
	*d = v
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
