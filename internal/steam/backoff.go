package steam

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

// retryAfter returns the delay a 429 response asks for. Steam sends whole
// seconds; anything else is ignored.
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.ParseUint(strings.TrimSpace(resp.Header.Get("Retry-After")), 10, 32)
	if err != nil || secs == 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryDelay is the wait before retry number attempt (1-based) after err.
// A server-provided delay wins over linear backoff; both are capped.
func retryDelay(err error, base time.Duration, attempt int) time.Duration {
	wait := config.GetRetryAfter(err)
	if wait == 0 {
		wait = base * time.Duration(attempt)
	}
	return min(wait, config.InventoryMaxRetryWait)
}
