package authcore

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var compactDuration = regexp.MustCompile(`^(\d+)([smhd])?$`)

// ParseDurationSeconds parses the compact lifetime form used in
// configuration: a bare integer is seconds, and an optional s, m, h or d
// suffix (any case) scales it. Surrounding whitespace is ignored.
//
// Anything else, including values that overflow a time.Duration, returns 0.
// Callers get a zero-second lifetime rather than an error; Config.Lint
// flags it.
func ParseDurationSeconds(s string) int64 {
	m := compactDuration.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}

	var unit int64 = 1
	switch m[2] {
	case "m":
		unit = 60
	case "h":
		unit = 3600
	case "d":
		unit = 86400
	}

	limit := int64(math.MaxInt64 / int64(time.Second))
	if n > limit/unit {
		return 0
	}
	return n * unit
}
