package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyExact(t *testing.T) {
	l := New(3)
	l.Record(0, 2)
	l.Record(1, 3)
	l.Record(0, 4)
	l.Record(1, 5)

	p := l.Verify(2, 5)
	assert.True(t, p.Exact(), p.String())
	assert.Equal(t, uint64(4), p.Expected)
	assert.Equal(t, uint64(4), p.Claimed)
	assert.Equal(t, 2, p.Active)
	assert.Equal(t, 4, l.Total())
	assert.Equal(t, []uint64{2, 4}, l.Claims(0))
	assert.Empty(t, l.Claims(2))
}

func TestVerifyDetectsDuplicatesAndGaps(t *testing.T) {
	l := New(2)
	for _, v := range []uint64{2, 3, 3, 6} {
		l.Record(0, v)
	}

	l.Record(1, 6)
	l.Record(1, 9)

	p := l.Verify(2, 7)
	assert.False(t, p.Exact())
	assert.Equal(t, []uint64{3, 6}, p.Duplicates)
	assert.Equal(t, []uint64{4, 5, 7}, p.Missing)
	assert.Equal(t, []uint64{9}, p.OutOfRange)
	assert.Equal(t, uint64(6), p.Claimed)
}

func TestVerifyEmptyRange(t *testing.T) {
	l := New(4)

	p := l.Verify(2, 1)
	assert.True(t, p.Exact())
	assert.Zero(t, p.Expected)
	assert.Zero(t, p.Active)
	assert.Contains(t, p.String(), "expected=0")
}

func TestClaimsIsCopy(t *testing.T) {
	l := New(1)
	l.Record(0, 2)

	c := l.Claims(0)
	c[0] = 99

	assert.Equal(t, []uint64{2}, l.Claims(0))
	assert.Equal(t, 1, l.Workers())
}
