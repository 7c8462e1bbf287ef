package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
)

// GetEnvVariable reads an environment variable with a fallback default
func GetEnvVariable(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// UnmarshalTask decodes an asynq task payload into dest.
// Empty payloads (scheduled jobs without parameters) are accepted.
func UnmarshalTask(t *asynq.Task, dest interface{}) error {
	payload := t.Payload()
	if len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", t.Type(), err)
	}

	return nil
}
