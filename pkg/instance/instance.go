package instance

import "github.com/angelmondragon/humidityzone-backend/pkg/env"

// GetID returns the process instance identifier, preferring the explicit
// HZ_WORKER_ID and falling back to the platform dyno name.
func GetID() string {
	return env.First("local", "HZ_WORKER_ID", "DYNO")
}
