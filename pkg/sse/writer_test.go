package sse

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))

	require.NoError(t, w.WriteToken("Hello"))
	require.NoError(t, w.WriteToken("line one\nline two"))
	require.NoError(t, w.WriteError("upstream\nfailed"))
	require.NoError(t, w.Done())

	want := "data: Hello\n\n" +
		"data: line one\ndata: line two\n\n" +
		"event: error\ndata: upstream failed\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, want, buf.String())
}
