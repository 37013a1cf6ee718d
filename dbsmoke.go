package dbsmoke

import (
	"os"
	"strconv"
	"testing"
)

func SkipDisabled(t *testing.T) {
	env := os.Getenv("DBSMOKE_DISABLE_TESTING")

	disabled, _ := strconv.ParseBool(env)

	if disabled {
		t.Skipf("test skipped because DBSMOKE_DISABLE_TESTING=%s", env)
	}
}
