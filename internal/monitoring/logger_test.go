package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLoggerRedirect(t *testing.T) {
	defer SetLogger(nil)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("dose layers: %d", 3)
	if captured != "dose layers: 3" {
		t.Fatalf("expected redirected log output, got %q", captured)
	}
}

func TestSetLoggerNilIsNoop(t *testing.T) {
	SetLogger(nil)
	// must not panic
	Logf("ignored %d", 1)
	SetLogger(nil)
}
