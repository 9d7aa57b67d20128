// Package supervisor owns the single worker process the controller is
// allowed to run. Start, stop and status all go through one Supervisor
// so the at-most-one-worker rule is enforced in one place.
package supervisor

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"qbot-core/internal/events"
	"qbot-core/internal/stopfile"
	"qbot-core/pkg/config"
	"qbot-core/pkg/i18n"
)

// StopGrace is how long a stopped worker gets to exit on its own
// before it is terminated.
const StopGrace = time.Second

var (
	ErrAlreadyRunning     = errors.New("supervisor: worker already running")
	ErrNotRunning         = errors.New("supervisor: no worker running")
	ErrMissingCredentials = errors.New("supervisor: broker credentials missing")
)

// Status is a point-in-time view of the worker.
type Status struct {
	Running  bool        `json:"running"`
	PID      int         `json:"pid,omitempty"`
	Settings *config.Run `json:"settings,omitempty"`
}

// Supervisor spawns and reaps the worker binary.
type Supervisor struct {
	mu       sync.Mutex
	binary   string
	args     []string
	creds    func() (email, password string)
	stop     stopfile.Marker
	bus      *events.Bus
	cmd      *exec.Cmd
	exited   chan struct{}
	settings *config.Run
}

// New builds a supervisor for the given worker binary. creds is
// consulted on every start so .env edits take effect without a
// controller restart.
func New(binary string, args []string, stop stopfile.Marker, bus *events.Bus, creds func() (string, string)) *Supervisor {
	return &Supervisor{binary: binary, args: args, stop: stop, bus: bus, creds: creds}
}

// Start validates settings and spawns a worker with them. It refuses
// when a worker is alive or the broker credentials are absent, and
// clears any stale stop marker first.
func (s *Supervisor) Start(settings config.Run) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	email, password := s.creds()
	if email == "" || password == "" {
		log.Print(i18n.Get("WorkerMissingCreds"))
		return ErrMissingCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aliveLocked() {
		log.Print(i18n.Get("WorkerAlreadyAlive"))
		return ErrAlreadyRunning
	}

	if s.stop.Present() {
		log.Printf(i18n.Get("StaleStopMarker"), s.stop.Path())
		if err := s.stop.Clear(); err != nil {
			return err
		}
	}

	cmd := exec.Command(s.binary, s.args...)
	cmd.Env = append(os.Environ(), settings.Env()...)
	cmd.Env = append(cmd.Env,
		"QX_EMAIL="+email,
		"QX_PASSWORD="+password,
		"STOP_FILE_PATH="+s.stop.Path(),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Printf(i18n.Get("WorkerStarting"), settings.Account, settings.Timeframe)
	if err := cmd.Start(); err != nil {
		log.Printf(i18n.Get("WorkerSpawnFailed"), err)
		return fmt.Errorf("spawn worker: %w", err)
	}
	log.Printf(i18n.Get("WorkerStarted"), cmd.Process.Pid)

	s.cmd = cmd
	s.settings = &settings
	s.exited = make(chan struct{})
	exited := s.exited
	go func() {
		err := cmd.Wait()
		close(exited)
		code := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		log.Printf(i18n.Get("WorkerExited"), code)
		if s.bus != nil {
			s.bus.Publish(events.EventWorkerStatus, events.WorkerStatusEvent{Running: false, Detail: "exited"})
		}
	}()

	if s.bus != nil {
		s.bus.Publish(events.EventWorkerStatus, events.WorkerStatusEvent{Running: true, PID: cmd.Process.Pid})
	}
	return nil
}

// Stop drops the stop marker, waits StopGrace for a clean exit and
// terminates the worker if it is still alive after that.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.aliveLocked() {
		s.mu.Unlock()
		log.Print(i18n.Get("WorkerNotRunning"))
		return ErrNotRunning
	}
	cmd, exited := s.cmd, s.exited
	s.mu.Unlock()

	if err := s.stop.Set(); err != nil {
		return err
	}
	log.Printf(i18n.Get("WorkerStopRequested"), StopGrace)

	select {
	case <-exited:
		return nil
	case <-time.After(StopGrace):
	}

	log.Print(i18n.Get("WorkerKilled"))
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill worker: %w", err)
	}
	<-exited
	return nil
}

// Status reports liveness and the settings of the current or last run.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Running: s.aliveLocked(), Settings: s.settings}
	if st.Running {
		st.PID = s.cmd.Process.Pid
	}
	return st
}

func (s *Supervisor) aliveLocked() bool {
	if s.cmd == nil {
		return false
	}
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}
