package vm

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapFileRoundTripsPages(t *testing.T) {
	dir := t.TempDir()
	sf, err := OpenSwapFile(dir, 42)
	require.NoError(t, err)

	want := bytes.Repeat([]byte{0x7A}, pageSizeBytes)
	require.NoError(t, sf.WritePage(3, want))

	got := make([]byte, pageSizeBytes)
	require.NoError(t, sf.ReadPage(3, got))
	assert.Equal(t, want, got)

	name := SwapFileName(dir, 42)
	require.NoError(t, sf.Close())
	_, err = os.Stat(name)
	assert.True(t, os.IsNotExist(err), "Close must remove the swap file")
}

func TestSwapFileNameIsDeterministic(t *testing.T) {
	assert.Equal(t, SwapFileName("/tmp", 9), SwapFileName("/tmp", 9))
	assert.NotEqual(t, SwapFileName("/tmp", 9), SwapFileName("/tmp", 10))
}

