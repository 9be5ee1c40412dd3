package duration

import (
	"regexp"
	"strconv"
)

var (
	hourPattern   = regexp.MustCompile(`(\d+)H`)
	minutePattern = regexp.MustCompile(`(\d+)M`)
	secondPattern = regexp.MustCompile(`(\d+)S`)
)

// Seconds converts a compact duration token such as "PT1H2M3S" into total seconds.
// Only the hour, minute and second fields are read; each defaults to 0 when absent,
// so a token with no recognizable unit yields 0.
func Seconds(token string) int64 {
	hours := unit(hourPattern, token)
	minutes := unit(minutePattern, token)
	seconds := unit(secondPattern, token)
	return hours*3600 + minutes*60 + seconds
}

func unit(pattern *regexp.Regexp, token string) int64 {
	m := pattern.FindStringSubmatch(token)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
