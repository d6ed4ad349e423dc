package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlot(t *testing.T) {
	assert.Equal(t, Location("histogram[0]"), Slot(0))
	assert.Equal(t, Location("histogram[111]"), Slot(111))
	assert.NotEqual(t, Slot(1), Slot(10))
}

func TestNopIgnoresEvents(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop.Acquire(CursorLock)
		Nop.Read(Cursor)
		Nop.Write(Cursor)
		Nop.Release(CursorLock)
	})
}
