package ipc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"src.arkts.dev/pkg/ipc/ipcdefs"
	"src.arkts.dev/pkg/testutil"
)

func TestHandshake_GivesUpAfterAttempts(t *testing.T) {
	testutil.Set(t, &pipePollInterval, 10*time.Millisecond)
	testutil.Set(t, &handshakeAttempts, 5)

	_, err := SpawnConfig(helperConfig("sleep"))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("got error %v, want ErrTimeout", err)
	}
}

func TestHandshake_TokenIsPipeName(t *testing.T) {
	p := spawnHelper(t, "token")
	token, err := p.ReceiveString(1024)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(token, ipcdefs.TokenPrefix) || strings.Contains(token, `\`) {
		t.Errorf("got token %q, want a bare pipe name", token)
	}
}

func TestSpawnConfig_PTYUnsupported(t *testing.T) {
	cfg := helperConfig("echo")
	cfg.PTY = true
	_, err := SpawnConfig(cfg)
	if !errors.Is(err, errNoPTY) {
		t.Errorf("got error %v, want errNoPTY", err)
	}
}

func TestSpawnConfig_NodeChannelUnsupported(t *testing.T) {
	cfg := helperConfig("echo")
	cfg.NodeChannel = true
	_, err := SpawnConfig(cfg)
	if !errors.Is(err, errNoNodeChannel) || KindOf(err) != KindStart {
		t.Errorf("got error %v, want a KindStart error wrapping errNoNodeChannel", err)
	}
}
