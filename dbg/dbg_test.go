package dbg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

type thing struct{ id int }

func TestName(t *testing.T) {
	a := &thing{1}
	b := &thing{2}
	assert.Equal(t, Name(a), Name(a))
	assert.NotEqual(t, Name(a), Name(b))
	assert.Equal(t, "Ø", Name((*thing)(nil)))
	assert.Equal(t, "Ø", Name(nil))
	// Non-pointer values are fine too
	assert.Equal(t, Name(42), Name(42))
	assert.Equal(t, "["+Name(a)+", "+Name(b)+"]", Names(a, b))
}

func TestLogf(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Logf("moved %d nodes", 3)
	assert.Contains(t, buf.String(), "moved 3 nodes")

	buf.Reset()
	Dump(struct{ A int }{7})
	assert.Contains(t, buf.String(), "A:")
	assert.Contains(t, buf.String(), "7")

	SetOutput(nil)
	buf.Reset()
	Logf("dropped")
	assert.Empty(t, buf.String())
}
