package pool

import (
	"errors"
	e "memdump/error"
	"memdump/pkg/frame"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityBound(n int) int { return n }

func TestNew(t *testing.T) {
	p, err := New(64, 3, func(n int) int { return n + 16 })
	require.NoError(t, err)

	assert.Equal(t, 64, p.SlotSize())
	assert.Equal(t, 3, p.Slots())
	assert.Len(t, p.src, 64*3)
	assert.Len(t, p.dst, (64+16+frame.TrailerWidth)*3)
}

func TestNewInvalid(t *testing.T) {
	_, err := New(0, 1, identityBound)
	assert.Error(t, err)

	_, err = New(16, 0, identityBound)
	assert.Error(t, err)

	_, err = New(16, 1, nil)
	assert.True(t, errors.Is(err, e.BindingFailure))

	_, err = New(16, 1, func(int) int { return -1 })
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	p, err := New(32, 1, identityBound)
	require.NoError(t, err)

	assert.NoError(t, p.Check(0))
	assert.NoError(t, p.Check(32))
	assert.ErrorIs(t, p.Check(33), e.OversizeRequest)
	assert.ErrorIs(t, p.Check(-1), e.OversizeRequest)
}

func TestNextSlotRoundRobin(t *testing.T) {
	p, err := New(8, 3, identityBound)
	require.NoError(t, err)

	var got []int
	for i := 0; i < 7; i++ {
		got = append(got, p.NextSlot())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, got)

	single, err := New(8, 1, identityBound)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, single.NextSlot())
	}
}

func TestSlotRegionsDoNotOverlap(t *testing.T) {
	p, err := New(4, 2, identityBound)
	require.NoError(t, err)

	a := p.Acquire()
	b := p.Acquire()
	defer a.Release()
	defer b.Release()

	assert.NotEqual(t, a.Index(), b.Index())
	assert.Len(t, a.Source(), 4)
	assert.Equal(t, 4, cap(a.Source()))
	assert.Len(t, a.Destination(), 4+frame.TrailerWidth)

	for i := range a.Source() {
		a.Source()[i] = 0xaa
	}
	for _, c := range b.Source() {
		assert.Equal(t, byte(0), c)
	}
}

func TestAcquireSerializesSameSlot(t *testing.T) {
	p, err := New(8, 1, identityBound)
	require.NoError(t, err)

	first := p.Acquire()

	acquired := make(chan *Slot)
	go func() {
		acquired <- p.Acquire()
	}()

	select {
	case <-acquired:
		t.Fatal("second reader acquired a slot that is still held")
	case <-time.After(50 * time.Millisecond):
	}

	first.Release()
	first.Release()

	select {
	case second := <-acquired:
		assert.Equal(t, 0, second.Index())
		second.Release()
	case <-time.After(time.Second):
		t.Fatal("slot was not handed over after release")
	}
}
