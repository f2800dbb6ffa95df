package broadcast

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/DennitchGlitchie/StreamingPi/internal/encoder"
)

// process is the supervisor's handle on one encoder instance.
type process interface {
	PID() int
	Alive() bool
	Signal(sig os.Signal) error
	Kill() error
	Done() <-chan struct{}
	WaitErr() error
}

// launcher starts a composed command. The supervisor holds one of these
// so tests can swap the real exec for a fake.
type launcher func(command encoder.Command, stdout, stderr io.Writer) (process, error)

// encoderProcess wraps a live ffmpeg instance. done closes once Wait
// returns, which makes liveness a non-blocking channel check.
type encoderProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

func launchEncoder(command encoder.Command, stdout, stderr io.Writer) (process, error) {
	cmd := exec.Command(command.Path, command.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}

	p := &encoderProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *encoderProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *encoderProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *encoderProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *encoderProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *encoderProcess) Done() <-chan struct{} {
	return p.done
}

// WaitErr reports how the process exited. Only meaningful after Done has
// closed; the channel close publishes the write.
func (p *encoderProcess) WaitErr() error {
	return p.waitErr
}
