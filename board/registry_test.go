package board

import (
	"canvas/domain"
	"canvas/protocol"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveReturnsSameRoom(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{Ids: &seqIds{}})

	a := reg.Resolve("r1")
	b := reg.Resolve("r1")
	c := reg.Resolve("r2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "r1", a.Id())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_LookupDoesNotCreate(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{})

	_, ok := reg.Lookup("r1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	created := reg.Resolve("r1")
	found, ok := reg.Lookup("r1")
	require.True(t, ok)
	assert.Same(t, created, found)
}

func TestRegistry_ConcurrentJoins(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{Ids: &seqIds{}})

	const joiners = 50
	peers := make([]*recordingPeer, joiners)
	for i := range peers {
		peers[i] = newRecordingPeer(fmt.Sprintf("c%d", i))
	}

	var wg sync.WaitGroup
	for _, peer := range peers {
		wg.Go(func() {
			assert.NoError(t, reg.Resolve("shared").join(peer, domain.Profile{Name: peer.id}))
		})
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Len())
	room, ok := reg.Lookup("shared")
	require.True(t, ok)
	assert.Len(t, room.ListParticipants(), joiners)

	// every peer learns about every other peer exactly once
	for _, peer := range peers {
		frames := peer.Frames()
		require.NotEmpty(t, frames)
		seen := map[string]int{}
		for _, u := range decodeData[protocol.InitStateView](t, frames[0]).Users {
			seen[u.Id]++
		}
		for _, f := range frames[1:] {
			seen[decodeData[protocol.ParticipantView](t, f).Id]++
		}
		assert.Len(t, seen, joiners-1, peer.id)
		for id, n := range seen {
			assert.Equal(t, 1, n, "%s saw %s %d times", peer.id, id, n)
		}
	}
}

func TestRegistry_Evict(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{})
	idle := reg.Resolve("idle")
	busy := reg.Resolve("busy")
	busy.AddParticipant("c1", domain.Profile{Name: "alice"})

	evicted := reg.Evict(time.Now().Add(time.Hour), time.Minute)

	assert.Equal(t, []string{"idle"}, evicted)
	_, ok := reg.Lookup("idle")
	assert.False(t, ok)
	_, ok = reg.Lookup("busy")
	assert.True(t, ok)

	// a session holding the evicted room gets a fresh one on its next resolve
	assert.ErrorIs(t, idle.join(newRecordingPeer("c2"), domain.Profile{Name: "bob"}), ErrRoomClosed)
	assert.NotSame(t, idle, reg.Resolve("idle"))
}

func TestRegistry_EvictKeepsRecentlyEmptied(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{})
	reg.Resolve("fresh")

	evicted := reg.Evict(time.Now(), time.Hour)

	assert.Empty(t, evicted)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_RunJanitor(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{})
	reg.Resolve("idle")

	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	tickers := &MockPeriodicTickerChannelCreator{}
	tickers.On("Create", 5*time.Minute).Return(ticks, func() { close(stopped) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.RunJanitor(ctx, tickers, 10*time.Minute)
		close(done)
	}()

	ticks <- time.Now().Add(time.Hour)
	// the second send only completes once the first tick has been handled
	ticks <- time.Now().Add(time.Hour)
	assert.Equal(t, 0, reg.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
	<-stopped
	tickers.AssertExpectations(t)
}

func TestRegistry_RunJanitorDisabled(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{})
	tickers := &MockPeriodicTickerChannelCreator{}

	reg.RunJanitor(context.Background(), tickers, 0)

	tickers.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegistry_RunJanitorMinimumInterval(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(RoomOptions{})
	tickers := &MockPeriodicTickerChannelCreator{}
	tickers.On("Create", time.Second).Return(make(chan time.Time), func() {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reg.RunJanitor(ctx, tickers, time.Second)

	tickers.AssertExpectations(t)
}
