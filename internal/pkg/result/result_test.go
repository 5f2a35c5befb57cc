package result

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorErrorFlipsOK(t *testing.T) {
	r := New()
	col := NewCollector(r)
	col.Warn(1, "just a warning")
	assert.True(t, r.OK, "a warning must not affect OK")

	col.Error(4, "boom: %s", "bad")
	assert.False(t, r.OK, "an error must flip OK to false")
	require.Len(t, r.Errors, 1)
	assert.Equal(t, Message{Code: 4, Message: "boom: bad"}, r.Errors[0])
}

func TestWriteHumanOrdersWarningsBeforeErrors(t *testing.T) {
	r := New()
	col := NewCollector(r)
	col.Warn(1, "w")
	col.Error(2, "e")

	var buf bytes.Buffer
	require.NoError(t, r.WriteHuman(&buf))
	out := buf.String()
	assert.Less(t, strings.Index(out, "warning"), strings.Index(out, "error"))
}

func TestWriteJSONEnvelopeKeys(t *testing.T) {
	r := New().Succeed(42)
	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"result":42`)
	assert.NotContains(t, buf.String(), `"ok"`)
}
