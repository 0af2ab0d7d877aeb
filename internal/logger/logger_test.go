package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the race detector see concurrent writes as ordered.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSetLevel_FiltersBelowLevel(t *testing.T) {
	var buf syncBuffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		require.NoError(t, SetLevel("info"))
	})

	require.NoError(t, SetLevel("warn"))
	Info("dropped", nil)
	Warn("kept", map[string]any{"cart_id": 9})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(9), entry["cart_id"])
}

func TestSetLevel_DefaultSkipsDebug(t *testing.T) {
	var buf syncBuffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	require.NoError(t, SetLevel(""))
	Debug("hidden", nil)

	assert.Empty(t, buf.String())
}

func TestSetLevel_Unknown(t *testing.T) {
	assert.Error(t, SetLevel("verbose"))
}

func TestSetOutput_ConcurrentWithLogging(t *testing.T) {
	t.Cleanup(func() { SetOutput(os.Stdout) })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetOutput(io.Discard)
		}()
		go func() {
			defer wg.Done()
			Info("concurrent", map[string]any{"n": 1})
		}()
	}
	wg.Wait()
}
