//go:build nojbufstats

package jitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/huandu/go-assert"
)

func Test_statsUnsupported(t *testing.T) {
	b, _ := newBuffer(t, 0, 0, 2)
	put(t, b, header(1))

	_, err := b.Stats()
	assert.Assert(t, errors.Is(err, ErrUnsupported))
	assert.Assert(t, !strings.Contains(b.Debug(), "Stat:"))
}
