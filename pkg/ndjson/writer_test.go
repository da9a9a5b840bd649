package ndjson

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterOneLinePerValue(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Write(map[string]string{"label": "<bafy&>"}))
	require.NoError(t, w.Write([]int{1, 2}))
	assert.Equal(t, 0, out.Len())

	require.NoError(t, w.Flush())
	assert.Equal(t, "{\"label\":\"<bafy&>\"}\n[1,2]\n", out.String())
	assert.Equal(t, uint64(2), w.Lines())
}

func TestWriterEncodeFailureLeavesNoPartialLine(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Write("ok"))
	assert.Error(t, w.Write(map[string]interface{}{"bad": make(chan int)}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "\"ok\"\n", out.String())
	assert.Equal(t, uint64(1), w.Lines())
}

func TestWriterOutputIsReadableBySplitter(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(map[string]int{"i": i}))
	}
	require.NoError(t, w.Flush())

	values := readAll(t, NewSplitter(strings.NewReader(out.String())))
	assert.Len(t, values, 3)
}
