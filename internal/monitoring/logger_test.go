package monitoring

import (
	"fmt"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)

	Logf("loaded %d boxes", 3)
	if len(*lines) != 1 || (*lines)[0] != "loaded 3 boxes" {
		t.Fatalf("custom logger got %q", *lines)
	}

	// nil installs a no-op; the captured logger must not see further output.
	SetLogger(nil)
	Logf("dropped")
	if len(*lines) != 1 {
		t.Errorf("no-op logger forwarded output: %q", *lines)
	}
}

func TestDebugf_RespectsVerbose(t *testing.T) {
	lines := capture(t)
	t.Cleanup(func() { SetVerbose(false) })

	SetVerbose(false)
	Debugf("frame %d", 1)
	if len(*lines) != 0 {
		t.Errorf("Debugf logged while quiet: %q", *lines)
	}

	SetVerbose(true)
	if !Verbose() {
		t.Fatal("Verbose() = false after SetVerbose(true)")
	}
	Debugf("frame %d", 2)
	if len(*lines) != 1 || (*lines)[0] != "frame 2" {
		t.Errorf("Debugf output = %q, want [frame 2]", *lines)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}
