package instance

import "os"

// GetID returns the process instance identifier for log correlation. The
// platform dyno name wins over the host name.
func GetID() string {
	for _, key := range []string{"HOSTELMART_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
