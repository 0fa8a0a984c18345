package board

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry maps room ids to rooms, creating a room the first time its id is seen.
// A given id resolves to the same *Room until the janitor evicts it for being idle.
type Registry struct {
	locker sync.RWMutex
	rooms  map[string]*Room
	opts   RoomOptions
}

func NewRegistry(opts RoomOptions) *Registry {
	if opts.Ids == nil {
		opts.Ids = NewIdGen()
	}
	return &Registry{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

func (reg *Registry) Resolve(roomId string) *Room {
	reg.locker.RLock()
	room, ok := reg.rooms[roomId]
	reg.locker.RUnlock()
	if ok {
		return room
	}

	reg.locker.Lock()
	defer reg.locker.Unlock()
	if room, ok := reg.rooms[roomId]; ok {
		return room
	}
	room = NewRoom(roomId, reg.opts)
	reg.rooms[roomId] = room
	log.Info().Str("room", roomId).Msg("room created")
	return room
}

// Lookup returns the room without creating it.
func (reg *Registry) Lookup(roomId string) (*Room, bool) {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	room, ok := reg.rooms[roomId]
	return room, ok
}

func (reg *Registry) Len() int {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	return len(reg.rooms)
}

// Evict removes rooms that have had no participants for at least ttl and returns their ids.
func (reg *Registry) Evict(now time.Time, ttl time.Duration) []string {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	var evicted []string
	for id, room := range reg.rooms {
		if room.tryClose(now, ttl) {
			delete(reg.rooms, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// RunJanitor evicts idle rooms on every tick until ctx is done. A ttl of zero disables it.
func (reg *Registry) RunJanitor(ctx context.Context, tickers PeriodicTickerChannelCreator, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticks, stop := tickers.Create(interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			if evicted := reg.Evict(now, ttl); len(evicted) > 0 {
				log.Info().Strs("rooms", evicted).Int("remaining", reg.Len()).Msg("evicted idle rooms")
			}
		}
	}
}
