package board

import (
	"canvas/domain"
	"canvas/protocol"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type RoomOptions struct {
	// HistoryCap bounds committed actions per room, 0 for unbounded.
	HistoryCap int
	// BroadcastCommits pushes every committed action to the other participants.
	BroadcastCommits bool
	Ids              UniqueIdGenerator
}

// Room is one collaborative session. Every read and write of its participants, peers and
// history happens under mu, including the enqueueing of the packets those changes produce,
// so each peer observes events in the same order the state changed.
type Room struct {
	id               string
	mu               sync.Mutex
	participants     map[string]*domain.Participant
	peers            map[string]Peer
	log              *ActionLog
	broadcastCommits bool
	emptySince       time.Time
	closed           bool
	now              func() time.Time
}

type RoomStats struct {
	Id           string `json:"id"`
	Participants int    `json:"participants"`
	Actions      int    `json:"actions"`
	Undone       int    `json:"undone"`
}

func NewRoom(id string, opts RoomOptions) *Room {
	ids := opts.Ids
	if ids == nil {
		ids = NewIdGen()
	}
	return &Room{
		id:               id,
		participants:     make(map[string]*domain.Participant),
		peers:            make(map[string]Peer),
		log:              NewActionLog(opts.HistoryCap, ids),
		broadcastCommits: opts.BroadcastCommits,
		emptySince:       time.Now(),
		now:              time.Now,
	}
}

func (r *Room) Id() string {
	return r.id
}

// AddParticipant registers connectionId with its cursor at the origin. An existing
// participant with the same id is overwritten.
func (r *Room) AddParticipant(connectionId string, profile domain.Profile) domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addParticipant(connectionId, profile)
}

func (r *Room) addParticipant(connectionId string, profile domain.Profile) domain.Participant {
	p := &domain.Participant{
		ConnectionId: connectionId,
		Name:         profile.Name,
		Color:        profile.Color,
	}
	r.participants[connectionId] = p
	return *p
}

func (r *Room) RemoveParticipant(connectionId string) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeParticipant(connectionId)
}

func (r *Room) removeParticipant(connectionId string) (domain.Participant, bool) {
	p, ok := r.participants[connectionId]
	if !ok {
		return domain.Participant{}, false
	}
	delete(r.participants, connectionId)
	delete(r.peers, connectionId)
	if len(r.participants) == 0 {
		r.emptySince = r.now()
	}
	return *p, true
}

// UpdateCursor moves a participant's cursor. It reports false when the participant has
// already left.
func (r *Room) UpdateCursor(connectionId string, x, y float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateCursor(connectionId, x, y)
}

func (r *Room) updateCursor(connectionId string, x, y float64) bool {
	p, ok := r.participants[connectionId]
	if !ok {
		return false
	}
	p.CursorX, p.CursorY = x, y
	return true
}

func (r *Room) ListParticipants() []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listParticipants("")
}

// listParticipants copies the participants, leaving out except.
func (r *Room) listParticipants(except string) []domain.Participant {
	list := make([]domain.Participant, 0, len(r.participants))
	for id, p := range r.participants {
		if id == except {
			continue
		}
		list = append(list, *p)
	}
	return list
}

func (r *Room) Append(authorId string, stroke domain.Stroke) domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Append(authorId, stroke)
}

func (r *Room) Undo() (domain.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Undo()
}

func (r *Room) Redo() (domain.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Redo()
}

func (r *Room) Snapshot() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Snapshot()
}

func (r *Room) Stats() RoomStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomStats{
		Id:           r.id,
		Participants: len(r.participants),
		Actions:      r.log.Len(),
		Undone:       r.log.UndoneLen(),
	}
}

// join adds the peer as a participant, hands it the history and the other participants,
// and tells everyone else. All of it happens under one lock so the joiner cannot miss or
// double-see an event.
func (r *Room) join(peer Peer, profile domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}

	participant := r.addParticipant(peer.Id(), profile)
	r.peers[peer.Id()] = peer

	initState := protocol.MakePacketInitState(r.log.Snapshot(), r.listParticipants(peer.Id()))
	r.sendTo(peer, initState)
	r.broadcast(peer.Id(), protocol.MakePacketUserJoined(participant), false)
	return nil
}

// leave removes the participant and tells the others. It reports false when the
// participant was already gone.
func (r *Room) leave(connectionId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.removeParticipant(connectionId); !ok {
		return false
	}
	r.broadcast(connectionId, protocol.MakePacketUserLeft(connectionId), false)
	return true
}

func (r *Room) commit(authorId string, stroke domain.Stroke) (domain.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[authorId]; !ok {
		return domain.Action{}, ErrNotParticipant
	}
	action := r.log.Append(authorId, stroke)
	if r.broadcastCommits {
		r.broadcast(authorId, protocol.MakePacketDraw(action), false)
	}
	return action, nil
}

// undo applies a global undo and notifies everyone, the requester included.
func (r *Room) undo() (domain.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.log.Undo()
	if ok {
		r.broadcast("", protocol.MakePacketUndo(action.Id), false)
	}
	return action, ok
}

func (r *Room) redo() (domain.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.log.Redo()
	if ok {
		r.broadcast("", protocol.MakePacketRedo(action.Id), false)
	}
	return action, ok
}

// resync sends the committed history to peer only.
func (r *Room) resync(peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendTo(peer, protocol.MakePacketHistory(r.log.Snapshot()))
}

func (r *Room) relaySegment(from string, seg protocol.LiveSegment) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[from]; !ok {
		return false
	}
	r.broadcast(from, protocol.MakePacketLiveSegment(seg), true)
	return true
}

func (r *Room) moveCursor(from string, move protocol.CursorMove) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.updateCursor(from, move.X, move.Y) {
		return false
	}
	r.broadcast(from, protocol.MakePacketCursorUpdate(from, move.X, move.Y, move.Binary), true)
	return true
}

// tryClose marks the room closed when it has had no participants for at least ttl.
func (r *Room) tryClose(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return true
	}
	if len(r.participants) > 0 || now.Sub(r.emptySince) < ttl {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) sendTo(peer Peer, packet *protocol.ServerPacket) {
	frame, err := packet.Marshal()
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Str("event", packet.Event).Msg("failed to marshal packet")
		return
	}
	if err := peer.Send(frame); err != nil {
		log.Info().Err(err).Str("room", r.id).Str("conn", peer.Id()).Msg("dropping slow connection")
	}
}

// broadcast sends packet to every peer but except. Volatile packets may be dropped per peer.
func (r *Room) broadcast(except string, packet *protocol.ServerPacket, volatile bool) {
	if len(r.peers) == 0 || (len(r.peers) == 1 && r.peers[except] != nil) {
		return
	}
	frame, err := packet.Marshal()
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Str("event", packet.Event).Msg("failed to marshal packet")
		return
	}

	for id, peer := range r.peers {
		if id == except {
			continue
		}
		if volatile {
			peer.SendVolatile(frame)
			continue
		}
		if err := peer.Send(frame); err != nil {
			log.Info().Err(err).Str("room", r.id).Str("conn", id).Msg("dropping slow connection")
		}
	}
}
