package scenario

import (
	"strconv"
	"strings"
)

// ParseOffset converts an authored time offset like "T+05:30" to total
// seconds. The "T+" prefix is optional. One part is seconds, two parts are
// minutes:seconds, three parts are hours:minutes:seconds.
//
// Malformed input returns 0. Scenario documents are trusted authored
// content, so a bad offset means "immediate" rather than an error.
func ParseOffset(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "T+")
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		// Leading zeros are stripped before parsing so "09" reads as 9.
		p = strings.TrimLeft(p, "0")
		if p == "" {
			nums[i] = 0
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 1:
		return nums[0]
	case 2:
		return nums[0]*60 + nums[1]
	default:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	}
}
