package instance

import (
	"os"

	"github.com/angelmondragon/quickbite-backend/pkg/env"
)

// ID names the running process for logs and lock ownership: the platform dyno,
// an explicit worker id, the hostname, or "local".
func ID() string {
	if id := env.First("DYNO", "WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
