package logtail

import "time"

// maxBackoff caps the retry delay while the log directory is unreadable.
const maxBackoff = 30 * time.Second

// calculateBackoff returns the delay before the next poll after the given
// number of consecutive failures.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
