package board

import (
	"canvas/protocol"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateDisconnected
)

// joinAttempts bounds re-resolving a room that the janitor closed between Resolve and join.
const joinAttempts = 3

// Session runs the protocol for one connection: Unjoined, then Joined to exactly one room,
// then Disconnected for good. It is driven by the connection's read loop and is not safe
// for concurrent use.
type Session struct {
	peer     Peer
	registry *Registry
	state    sessionState
	room     *Room
}

func NewSession(peer Peer, registry *Registry) *Session {
	return &Session{peer: peer, registry: registry, state: stateUnjoined}
}

// Handle applies one message. Returned errors describe why a message was ignored; they are
// for logging only and never reach the client.
func (s *Session) Handle(msg protocol.Message) error {
	if s.state == stateDisconnected {
		return ErrSessionClosed
	}

	switch m := msg.(type) {
	case protocol.Join:
		return s.join(m)
	case protocol.Resync:
		return s.resync(m)
	}

	room, err := s.boundRoom(msg.Room())
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case protocol.LiveSegment:
		if !room.relaySegment(s.peer.Id(), m) {
			return ErrNotParticipant
		}
	case protocol.CursorMove:
		if !room.moveCursor(s.peer.Id(), m) {
			return ErrNotParticipant
		}
	case protocol.FinishStroke:
		action, err := room.commit(s.peer.Id(), m.Stroke)
		if err != nil {
			return err
		}
		log.Debug().Str("room", room.Id()).Str("conn", s.peer.Id()).Str("action", action.Id).
			Int("points", len(m.Stroke.Points)).Msg("stroke committed")
	case protocol.Undo:
		if action, ok := room.undo(); ok {
			log.Debug().Str("room", room.Id()).Str("conn", s.peer.Id()).Str("action", action.Id).Msg("undo")
		}
	case protocol.Redo:
		if action, ok := room.redo(); ok {
			log.Debug().Str("room", room.Id()).Str("conn", s.peer.Id()).Str("action", action.Id).Msg("redo")
		}
	default:
		return fmt.Errorf("unhandled message %T", msg)
	}
	return nil
}

func (s *Session) boundRoom(roomId string) (*Room, error) {
	if s.state != stateJoined {
		return nil, ErrNotJoined
	}
	if roomId != s.room.Id() {
		return nil, ErrRoomMismatch
	}
	return s.room, nil
}

func (s *Session) join(m protocol.Join) error {
	if s.state == stateJoined {
		return ErrAlreadyJoined
	}

	for range joinAttempts {
		room := s.registry.Resolve(m.RoomId)
		err := room.join(s.peer, m.Profile)
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			return err
		}
		s.room = room
		s.state = stateJoined
		log.Info().Str("room", room.Id()).Str("conn", s.peer.Id()).Str("name", m.Profile.Name).Msg("participant joined")
		return nil
	}
	return ErrRoomClosed
}

// resync answers with the committed history of the requested room. A room that does not
// exist has an empty history and is not created.
func (s *Session) resync(m protocol.Resync) error {
	if s.state == stateJoined && m.RoomId == s.room.Id() {
		s.room.resync(s.peer)
		return nil
	}
	if room, ok := s.registry.Lookup(m.RoomId); ok {
		room.resync(s.peer)
		return nil
	}

	frame, err := protocol.MakePacketHistory(nil).Marshal()
	if err != nil {
		return err
	}
	return s.peer.Send(frame)
}

// Disconnect leaves the bound room, if any. Calling it again does nothing.
func (s *Session) Disconnect() {
	if s.state == stateDisconnected {
		return
	}
	wasJoined := s.state == stateJoined
	s.state = stateDisconnected
	if !wasJoined {
		return
	}
	if s.room.leave(s.peer.Id()) {
		log.Info().Str("room", s.room.Id()).Str("conn", s.peer.Id()).Msg("participant left")
	}
}
