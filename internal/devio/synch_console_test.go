package devio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/stretchr/testify/assert"
)

func TestSynchConsoleReadLine(t *testing.T) {
	in := strings.NewReader("hello\nworld\n")
	var out bytes.Buffer
	console := device.NewAsyncConsole(in, &out)
	sc := NewSynchConsole(console)
	ctx := testCtx(1)

	line, ok := sc.ReadLine(ctx)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(line))

	line, ok = sc.ReadLine(ctx)
	assert.True(t, ok)
	assert.Equal(t, "world", string(line))

	_, ok = sc.ReadLine(ctx)
	assert.False(t, ok)
}

func TestSynchConsoleWriteLine(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	console := device.NewAsyncConsole(in, &out)
	sc := NewSynchConsole(console)
	ctx := testCtx(1)

	sc.WriteLine(ctx, []byte("hi there"))
	assert.Equal(t, "hi there\n", out.String())
}

func TestSynchConsoleEOFOnEmptyInput(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	console := device.NewAsyncConsole(in, &out)
	sc := NewSynchConsole(console)
	ctx := testCtx(1)

	done := make(chan struct{})
	go func() {
		_, ok := sc.ReadByte(ctx)
		assert.False(t, ok)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReadByte never returned on EOF")
	}
}
