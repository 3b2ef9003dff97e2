package fbpad

import (
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
)

// ptyProcess owns one child's pty master and *exec.Cmd, grounded on
// dcosson/h2's VT.StartPTY/Resize (internal/virtualterminal/vt.go):
// creack/pty already sets Setsid/Setctty on the child so it becomes
// session leader with the slave as controlling tty, matching spec.md
// §4.6.1's exec() contract. A background goroutine calls cmd.Wait(), the
// same "don't block the caller, just reap in a goroutine" shape as
// dcosson/h2's daemon.Start, since the scheduler's poll loop can't afford
// to block on a child's exit.
type ptyProcess struct {
	master *os.File
	cmd    *exec.Cmd
	exited atomic.Bool
}

// sendRetries/sendRetryInterval bound Terminal.sendToChild's write
// retries on a full pty buffer (spec.md §4.6.1 "≤ 4 × 50 ms").
const (
	sendRetries       = 4
	sendRetryInterval = 50 * time.Millisecond
)

// Exec opens a pty pair, forks argv[0] as a session leader with the
// slave as its controlling tty, and wires TERM/FBDEV (and optionally
// TERM_PGID) into its environment (spec.md §4.6.1 "exec(t, argv,
// send_vt_signals)"). t owns the child from here on;
// Resize/End/sendToChild all operate through t.pty.
func (t *Terminal) Exec(argv []string, termName, fbdev string, sendVTSignals bool) error {
	if len(argv) == 0 {
		return ErrPTYFailed
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "TERM="+termName, "FBDEV="+fbdev)
	if sendVTSignals {
		cmd.Env = append(cmd.Env, fmt.Sprintf("TERM_PGID=%d", os.Getpid()))
	}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(t.grid.Rows()),
		Cols: uint16(t.grid.Cols()),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPTYFailed, err)
	}

	p := &ptyProcess{master: master, cmd: cmd}
	t.pty = p
	t.fd = int(master.Fd())
	t.sendVTSignals = sendVTSignals
	t.recv = t.recv[:0]
	t.send = t.send[:0]

	go func() {
		cmd.Wait()
		p.exited.Store(true)
	}()
	return nil
}

// Exited reports whether the child has already terminated, for SIGCHLD
// handling (spec.md §4.7's "SIGCHLD: reap").
func (p *ptyProcess) Exited() bool { return p.exited.Load() }

// Read drains up to one buffer's worth of bytes from the pty and parses
// everything complete that results (spec.md §4.6.1 "read()"). Returns
// false when the child's side of the pty has gone away (EOF/error), at
// which point the caller (mux.go) should End() the terminal.
func (t *Terminal) Read() bool {
	if t.pty == nil {
		return false
	}
	buf := make([]byte, 8192)
	n, err := t.pty.master.Read(buf)
	if n > 0 {
		t.feedFromPty(buf[:n])
	}
	return err == nil
}

// Write implements the bounded-retry, never-blocks-the-scheduler send
// contract of spec.md §4.6.1 and §4.6.8 ("Pty write refused after bounded
// retries → drop bytes").
func (p *ptyProcess) Write(b []byte) {
	for len(b) > 0 {
		n, err := p.master.Write(b)
		if n > 0 {
			b = b[n:]
			continue
		}
		if err == nil {
			continue
		}
		for retry := 0; retry < sendRetries && len(b) > 0; retry++ {
			time.Sleep(sendRetryInterval)
			n, err = p.master.Write(b)
			if n > 0 {
				b = b[n:]
				err = nil
				break
			}
		}
		if err != nil {
			return
		}
	}
}

// Resize issues TIOCSWINSZ, which delivers SIGWINCH to the child.
func (p *ptyProcess) Resize(rows, cols int) {
	pty.Setsize(p.master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Close releases the pty master; the child's side sees EOF.
func (p *ptyProcess) Close() {
	p.master.Close()
}
