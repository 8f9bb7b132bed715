package ipc

import (
	"errors"
	"testing"
	"time"

	"src.arkts.dev/pkg/ipc/ipcdefs"
	"src.arkts.dev/pkg/testutil"
)

func TestConnect_TimesOutWhenPipeNeverCreated(t *testing.T) {
	testutil.Set(t, &pipePollInterval, 10*time.Millisecond)
	testutil.Set(t, &pipeConnectTimeout, testutil.Scaled(200*time.Millisecond))

	start := time.Now()
	_, err := Connect(ipcdefs.TokenName(0))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("got error %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < pipeConnectTimeout {
		t.Errorf("Connect returned after %v, before the %v budget", elapsed, pipeConnectTimeout)
	}
}
