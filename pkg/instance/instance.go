package instance

import "os"

// GetID returns the process instance identifier or a default value. The live
// relay uses it to drop events the local instance published itself.
func GetID() string {
	if id := os.Getenv("INSTANCE_ID"); id != "" {
		return id
	}
	return "analytics-0"
}
