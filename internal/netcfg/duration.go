package netcfg

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a whole-number duration suffixed by "s", "ms" or
// "us" (e.g. "500ms", "30s"). The "ms"/"us" suffixes are checked before the
// bare "s" suffix since both end in 's'.
func ParseDuration(s string) (time.Duration, error) {
	if rest, ok := strings.CutSuffix(s, "ms"); ok {
		if n, err := strconv.ParseUint(rest, 10, 64); err == nil {
			return time.Duration(n) * time.Millisecond, nil
		}
	} else if rest, ok := strings.CutSuffix(s, "us"); ok {
		if n, err := strconv.ParseUint(rest, 10, 64); err == nil {
			return time.Duration(n) * time.Microsecond, nil
		}
	} else if rest, ok := strings.CutSuffix(s, "s"); ok {
		if n, err := strconv.ParseUint(rest, 10, 64); err == nil {
			return time.Duration(n) * time.Second, nil
		}
	}

	return 0, fmt.Errorf("netcfg: %q must be a whole number suffixed by 's', 'ms', or 'us'", s)
}
