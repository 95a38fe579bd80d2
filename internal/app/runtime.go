package app

import (
	"os"
	"strconv"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

// InTestMode reports whether binaries should skip dialing stores and
// listening, as under go test.
func InTestMode() bool {
	enabled, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && enabled
}
