package seqsummary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBus_FIFOAndSentinel(t *testing.T) {
	bus := NewErrorBus()
	first := errors.New("first")
	bus.Post(first)
	bus.Post(nil)
	bus.Post(errors.New("second"))
	bus.Done()

	ctx := context.Background()
	m, err := bus.Next(ctx)
	require.NoError(t, err)
	assert.False(t, m.IsSentinel())
	assert.Equal(t, first, m.Value())

	m, err = bus.Next(ctx)
	require.NoError(t, err)
	assert.EqualError(t, m.Value(), "second")

	m, err = bus.Next(ctx)
	require.NoError(t, err)
	assert.True(t, m.IsSentinel())

	assert.Equal(t, first, bus.Err(), "Err remembers the first failure after it was consumed")
}

func TestErrorBus_NextBlocksUntilPost(t *testing.T) {
	bus := NewErrorBus()
	got := make(chan Message[error], 1)
	go func() {
		m, err := bus.Next(context.Background())
		if err == nil {
			got <- m
		}
	}()

	select {
	case <-got:
		t.Fatal("Next returned before anything was posted")
	case <-time.After(20 * time.Millisecond):
	}
	bus.Done()
	select {
	case m := <-got:
		assert.True(t, m.IsSentinel())
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not observe the posted sentinel")
	}
}

func TestErrorBus_NextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewErrorBus().Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorBus_PostNeverBlocks(t *testing.T) {
	bus := NewErrorBus()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				bus.Post(fmt.Errorf("worker %d error %d", i, j))
			}
		}(i)
	}
	wg.Wait()

	count := 0
	bus.Done()
	for {
		m, err := bus.Next(context.Background())
		require.NoError(t, err)
		if m.IsSentinel() {
			break
		}
		count++
	}
	assert.Equal(t, 4000, count)
}

func TestComponentError(t *testing.T) {
	cause := fmt.Errorf("%w: /data/a.fast5: bad superblock", ErrContainerOpen)
	err := newComponentError(ComponentExtractor, 3, "/data/a.fast5", cause)

	assert.ErrorIs(t, err, ErrContainerOpen)
	assert.Equal(t, "extractor 03 failed on /data/a.fast5: "+cause.Error(), err.Error())

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "errbus_test.go", "Stack trace is printed with %%+v")

	plain := newComponentError(ComponentWriter, 0, "", errors.New("disk full"))
	assert.Equal(t, "writer failed: disk full", plain.Error())
}

func TestPanicError(t *testing.T) {
	assert.EqualError(t, panicError("boom"), "panic: boom")
	base := errors.New("nil map")
	err := panicError(base)
	assert.ErrorIs(t, err, base)
}
