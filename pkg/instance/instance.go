package instance

import (
	"os"
	"strings"
)

// GetID returns the process instance identifier used in startup logs. It
// prefers VITRINE_INSTANCE_ID, then the platform's DYNO or HOSTNAME.
func GetID() string {
	for _, key := range []string{"VITRINE_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
