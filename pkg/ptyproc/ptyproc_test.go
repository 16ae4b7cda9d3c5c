package ptyproc

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jD91mZM2/termwm/pkg/iodelay"
)

func TestStartSpawnsChildAndAllowsReadWrite(t *testing.T) {
	p, err := Start(exec.Command("/bin/sh", "-c", "cat"), Winsize{Cols: 80, Rows: 24})
	require.NoError(t, err)
	defer p.Close()

	n, err := p.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	buf := make([]byte, 256)
	deadline := time.Now().Add(2 * time.Second)
	var got []byte
	for time.Now().Before(deadline) && len(got) < len("hello\r\n") {
		n, err := p.Read(buf)
		if err != nil {
			if iodelay.IsWouldBlock(err) {
				time.Sleep(time.Millisecond)
				continue
			}
			require.NoError(t, err)
		}
		got = append(got, buf[:n]...)
	}
	assert.Contains(t, string(got), "hello")

	require.NoError(t, p.cmd.Process.Kill())
	_ = p.Wait()
}

func TestSetSizeAppliesNewWindowSize(t *testing.T) {
	p, err := Start(exec.Command("/bin/sh", "-c", "sleep 5"), Winsize{Cols: 80, Rows: 24})
	require.NoError(t, err)
	defer p.Close()
	defer func() {
		_ = p.cmd.Process.Kill()
		_ = p.Wait()
	}()

	require.NoError(t, p.SetSize(Winsize{Cols: 100, Rows: 40}))
}
