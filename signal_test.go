package fbpad

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSignalBridgeDrainsUSR1(t *testing.T) {
	sb, err := newSignalBridge()
	if err != nil {
		t.Fatalf("newSignalBridge: %v", err)
	}
	defer sb.close()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill SIGUSR1: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		usr1, _, _ := sb.drain()
		if usr1 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for SIGUSR1 to reach the self-pipe")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSignalBridgeFd(t *testing.T) {
	sb, err := newSignalBridge()
	if err != nil {
		t.Fatalf("newSignalBridge: %v", err)
	}
	defer sb.close()
	if sb.fd() <= 0 {
		t.Fatalf("got fd %d, want positive", sb.fd())
	}
}
