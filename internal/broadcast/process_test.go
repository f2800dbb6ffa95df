package broadcast

import (
	"bytes"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/DennitchGlitchie/StreamingPi/internal/encoder"
)

func TestLaunchEncoderLifecycle(t *testing.T) {
	p, err := launchEncoder(encoder.Command{Path: "sleep", Args: []string{"30"}}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	if !p.Alive() {
		t.Fatal("freshly launched process reported dead")
	}
	if p.PID() <= 0 {
		t.Errorf("PID = %d", p.PID())
	}

	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after SIGTERM")
	}
	if p.Alive() {
		t.Error("exited process reported alive")
	}

	// Signalling a dead process errors; callers treat that as routine.
	if err := p.Signal(syscall.SIGTERM); err == nil {
		t.Error("signal to dead process unexpectedly succeeded")
	}
}

func TestLaunchEncoderMissingBinary(t *testing.T) {
	_, err := launchEncoder(encoder.Command{Path: "streampi-no-such-binary"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected launch failure for a missing binary")
	}
}

func TestLaunchEncoderRoutesOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	command := encoder.Command{Path: "sh", Args: []string{"-c", "echo frames; echo trouble >&2"}}

	p, err := launchEncoder(command, &stdout, &stderr)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	<-p.Done()

	if got := stdout.String(); !strings.Contains(got, "frames") {
		t.Errorf("stdout = %q", got)
	}
	if got := stderr.String(); !strings.Contains(got, "trouble") {
		t.Errorf("stderr = %q", got)
	}
	if err := p.WaitErr(); err != nil {
		t.Errorf("WaitErr = %v for a clean exit", err)
	}
}
