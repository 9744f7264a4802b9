// Package featureflags reads runtime toggles from the environment.
//
// Flags currently in use:
//
//	FLAG_RECONCILE_DRY_RUN  log reconcile decisions without writing them
//	FLAG_EVENT_FEED         enable the websocket event feed endpoint
package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether FLAG_<NAME> is set to a truthy value
// (1/true/yes/on, case-insensitive).
func Enabled(name string) bool {
	switch strings.ToLower(os.Getenv("FLAG_" + strings.ToUpper(name))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
