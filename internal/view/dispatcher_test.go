package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_TickRunsInOrder(t *testing.T) {
	d := NewDispatcher(NewMemoryView())
	var got []int
	for i := 0; i < 5; i++ {
		d.Post(func(View) { got = append(got, i) })
	}
	assert.Equal(t, 5, d.Len())
	assert.Equal(t, 5, d.Tick())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, d.Tick())
}

func TestDispatcher_PostNeverDrops(t *testing.T) {
	d := NewDispatcher(NewMemoryView())
	var (
		wg    sync.WaitGroup
		count int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				d.Post(func(View) { count++ })
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 4000, d.Drain())
	assert.Equal(t, 4000, count)
	posted, handled := d.Stats()
	assert.Equal(t, uint64(4000), posted)
	assert.Equal(t, uint64(4000), handled)
}

func TestDispatcher_MessagesPostedDuringTickWait(t *testing.T) {
	d := NewDispatcher(NewMemoryView())
	ran := 0
	d.Post(func(View) {
		ran++
		d.Post(func(View) { ran++ })
	})
	assert.Equal(t, 1, d.Tick())
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, d.Tick())
	assert.Equal(t, 2, ran)
}

func TestDispatcher_RunAndDo(t *testing.T) {
	mv := NewMemoryView()
	d := NewDispatcher(mv)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()

	err := d.Do(context.Background(), func(v View) { v.ShowPlaceholder(Games, Fetching) })
	require.NoError(t, err)
	assert.Equal(t, Fetching, mv.Placeholder(Games))

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("ui loop did not stop")
	}
}

func TestDispatcher_DoHonoursContext(t *testing.T) {
	d := NewDispatcher(NewMemoryView())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Do(ctx, func(View) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_DoSkipsAbandonedMessage(t *testing.T) {
	d := NewDispatcher(NewMemoryView())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := d.Do(ctx, func(View) { ran = true })
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, d.Len())

	assert.Equal(t, 1, d.Tick())
	assert.False(t, ran, "a message abandoned by its caller must not run")
}
