package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReference(t *testing.T) {
	ref := NewReference()
	assert.True(t, strings.HasPrefix(ref, "TXN-"))
	assert.NotEqual(t, ref, NewReference())
}

func TestReversalReference(t *testing.T) {
	ref := "TXN-01ARZ3NDEKTSV4RRFFQ69G5FAV"
	rev := ReversalReference(ref)

	assert.Equal(t, "rev-"+ref, rev)
	assert.True(t, IsReversal(rev))
	assert.False(t, IsReversal(ref))

	orig, ok := Original(rev)
	assert.True(t, ok)
	assert.Equal(t, ref, orig)

	_, ok = Original(ref)
	assert.False(t, ok)
}
