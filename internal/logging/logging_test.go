package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNew_VerbosityFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, 0).WithName("sim")

	log.Info("run started", "frames", 10)
	log.V(1).Info("frame", "frame", 1)

	out := buf.String()
	if !strings.Contains(out, `"msg"="run started"`) {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, `"frames"=10`) {
		t.Errorf("missing key/value pair in %q", out)
	}
	if !strings.Contains(out, "sim: ") {
		t.Errorf("missing logger name in %q", out)
	}
	if strings.Contains(out, `"msg"="frame"`) {
		t.Errorf("V(1) line should be filtered at verbosity 0: %q", out)
	}
}

func TestNew_Errors(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, 1)

	log.Error(errors.New("singular"), "frame failed")
	log.V(1).Info("frame")

	out := buf.String()
	if !strings.Contains(out, `"error"="singular"`) {
		t.Errorf("missing error in %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected two lines, got %q", out)
	}
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		verbose, debug bool
		want           int
	}{
		{false, false, 0},
		{true, false, 1},
		{false, true, 2},
		{true, true, 2},
	}
	for _, tt := range tests {
		if got := Verbosity(tt.verbose, tt.debug); got != tt.want {
			t.Errorf("Verbosity(%v, %v) = %d, want %d", tt.verbose, tt.debug, got, tt.want)
		}
	}
}
