package common

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithSpinnerReturnsResult(t *testing.T) {
	boom := errors.New("boom")
	assert.ErrorIs(t, WithSpinner(io.Discard, "working", func() error { return boom }), boom)

	calls := 0
	assert.NoError(t, WithSpinner(io.Discard, "working", func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestWithSpinnerWritesDescription(t *testing.T) {
	var buf bytes.Buffer
	err := WithSpinner(&buf, "Importing agent", func() error {
		time.Sleep(250 * time.Millisecond)
		return nil
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Importing agent")
}
