package fetcher

import (
	"fmt"
	"strings"
)

// ProviderError wraps a failed log query with the sub-range that failed, so
// callers can decide whether to retry with a narrower range or abort.
type ProviderError struct {
	From uint64
	To   uint64
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider query failed for blocks %d-%d: %v", e.From, e.To, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// rangeLimitMarkers match the messages providers use to reject a getLogs
// request whose range or result set exceeds their limits. There is no
// standard error code for this, so matching is by substring.
var rangeLimitMarkers = []string{
	"query returned more than",
	"block range is too large",
	"block range is too wide",
	"exceed maximum block range",
	"range too large",
	"too many results",
	"response size exceeded",
	"query timeout exceeded",
	"limit exceeded",
}

func isRangeLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rangeLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
