package parser

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak from the parallel parse workers.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
