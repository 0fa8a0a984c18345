package protocol

import (
	"canvas/domain"
	"encoding/json"
	"fmt"
)

// Event names carried in the JSON envelope.
const (
	EventJoinRoom        = "join_room"
	EventDrawingLive     = "drawing_live"
	EventDrawFinish      = "draw_finish"
	EventCursorMove      = "cursor_move"
	EventUndo            = "undo"
	EventRedo            = "redo"
	EventRequestHistory  = "request_history"
	EventInitState       = "init_state"
	EventUserJoined      = "user_joined"
	EventDraw            = "draw"
	EventCursorUpdate    = "cursor_update"
	EventHistoryResponse = "history_response"
	EventUserLeft        = "user_left"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type pointIn struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p *pointIn) point() (domain.Point, bool) {
	if p == nil || p.X == nil || p.Y == nil {
		return domain.Point{}, false
	}
	return domain.Point{X: *p.X, Y: *p.Y}, true
}

type styleIn struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type roomOnlyIn struct {
	RoomId string `json:"roomId"`
}

type joinIn struct {
	RoomId string `json:"roomId"`
	User   *struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"user"`
}

type liveIn struct {
	RoomId string   `json:"roomId"`
	Start  *pointIn `json:"start"`
	End    *pointIn `json:"end"`
	Style  *styleIn `json:"style"`
}

type finishIn struct {
	RoomId string `json:"roomId"`
	Data   *struct {
		Points []pointIn `json:"points"`
		Color  string    `json:"color"`
		Width  float64   `json:"width"`
	} `json:"data"`
}

type cursorIn struct {
	RoomId string   `json:"roomId"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

// DecodeText parses a JSON text frame into a validated Message. Any error wraps
// domain.ErrMalformedMessage.
func DecodeText(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed(err)
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("{}")
	}

	switch env.Event {
	case EventJoinRoom:
		return decodeJoin(env.Data)
	case EventDrawingLive:
		return decodeLive(env.Data)
	case EventDrawFinish:
		return decodeFinish(env.Data)
	case EventCursorMove:
		return decodeCursor(env.Data)
	case EventUndo:
		return decodeRoomOnly(env.Data, func(id string) Message { return Undo{RoomId: id} })
	case EventRedo:
		return decodeRoomOnly(env.Data, func(id string) Message { return Redo{RoomId: id} })
	case EventRequestHistory:
		return decodeRoomOnly(env.Data, func(id string) Message { return Resync{RoomId: id} })
	default:
		return nil, malformed(fmt.Errorf("%w: %q", domain.ErrUnknownEvent, env.Event))
	}
}

func decodeRoomOnly(raw json.RawMessage, build func(roomId string) Message) (Message, error) {
	var in roomOnlyIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, malformed(err)
	}
	if err := validateRoomId(in.RoomId); err != nil {
		return nil, err
	}
	return build(in.RoomId), nil
}

func decodeJoin(raw json.RawMessage) (Message, error) {
	var in joinIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, malformed(err)
	}
	if err := validateRoomId(in.RoomId); err != nil {
		return nil, err
	}
	if in.User == nil {
		return nil, malformed(domain.ErrMissingProfile)
	}
	profile := normalizeProfile(domain.Profile{Name: in.User.Name, Color: in.User.Color})
	return Join{RoomId: in.RoomId, Profile: profile}, nil
}

func decodeLive(raw json.RawMessage) (Message, error) {
	var in liveIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, malformed(err)
	}
	start, okStart := in.Start.point()
	end, okEnd := in.End.point()
	if !okStart || !okEnd {
		return nil, malformed(domain.ErrTooFewPoints)
	}
	if in.Style == nil {
		return nil, malformed(domain.ErrInvalidStyle)
	}
	msg := LiveSegment{
		RoomId: in.RoomId,
		Start:  start,
		End:    end,
		Style:  domain.Style{Color: in.Style.Color, Width: in.Style.Width},
	}
	if err := validateSegment(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeFinish(raw json.RawMessage) (Message, error) {
	var in finishIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, malformed(err)
	}
	if err := validateRoomId(in.RoomId); err != nil {
		return nil, err
	}
	if in.Data == nil {
		return nil, malformed(domain.ErrTooFewPoints)
	}

	points := make([]domain.Point, 0, len(in.Data.Points))
	for i := range in.Data.Points {
		p, ok := in.Data.Points[i].point()
		if !ok {
			return nil, malformed(domain.ErrNonFiniteNumber)
		}
		points = append(points, p)
	}
	stroke := domain.Stroke{Points: points, Color: in.Data.Color, Width: in.Data.Width}
	if err := validateStroke(stroke); err != nil {
		return nil, err
	}
	return FinishStroke{RoomId: in.RoomId, Stroke: stroke}, nil
}

func decodeCursor(raw json.RawMessage) (Message, error) {
	var in cursorIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, malformed(err)
	}
	if in.X == nil || in.Y == nil {
		return nil, malformed(domain.ErrNonFiniteNumber)
	}
	msg := CursorMove{RoomId: in.RoomId, X: *in.X, Y: *in.Y}
	if err := validateCursor(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
