package protocol

import (
	"canvas/domain"
	"encoding/json"
)

// Frame is one encoded websocket message.
type Frame struct {
	Binary bool
	Data   []byte
}

// ServerPacket is an outbound event. Packets built from binary input carry their
// pre-encoded binary form and ignore Event/Data when marshaled.
type ServerPacket struct {
	Event  string
	Data   any
	binary []byte
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (p *ServerPacket) Marshal() (Frame, error) {
	if p.binary != nil {
		return Frame{Binary: true, Data: p.binary}, nil
	}
	data, err := json.Marshal(outEnvelope{Event: p.Event, Data: p.Data})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Data: data}, nil
}

type PointView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StrokeView struct {
	Points []PointView `json:"points"`
	Color  string      `json:"color"`
	Width  float64     `json:"width"`
}

type ActionView struct {
	Id        string     `json:"id"`
	UserId    string     `json:"userId"`
	Timestamp int64      `json:"timestamp"`
	Type      string     `json:"type"`
	Data      StrokeView `json:"data"`
}

type ParticipantView struct {
	Id    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type StyleView struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type SegmentView struct {
	Start PointView `json:"start"`
	End   PointView `json:"end"`
	Style StyleView `json:"style"`
}

type InitStateView struct {
	History []ActionView      `json:"history"`
	Users   []ParticipantView `json:"users"`
}

type CursorView struct {
	UserId string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type ActionIdView struct {
	ActionId string `json:"actionId"`
}

type UserIdView struct {
	UserId string `json:"userId"`
}

func pointView(p domain.Point) PointView {
	return PointView{X: p.X, Y: p.Y}
}

func NewActionView(a domain.Action) ActionView {
	points := make([]PointView, len(a.Stroke.Points))
	for i, p := range a.Stroke.Points {
		points[i] = pointView(p)
	}
	return ActionView{
		Id:        a.Id,
		UserId:    a.AuthorId,
		Timestamp: a.CreatedAt.UnixMilli(),
		Type:      string(a.Kind),
		Data:      StrokeView{Points: points, Color: a.Stroke.Color, Width: a.Stroke.Width},
	}
}

func NewParticipantView(p domain.Participant) ParticipantView {
	return ParticipantView{Id: p.ConnectionId, Name: p.Name, Color: p.Color, X: p.CursorX, Y: p.CursorY}
}

func historyView(history []domain.Action) []ActionView {
	views := make([]ActionView, len(history))
	for i, a := range history {
		views[i] = NewActionView(a)
	}
	return views
}

func MakePacketInitState(history []domain.Action, users []domain.Participant) *ServerPacket {
	userViews := make([]ParticipantView, len(users))
	for i, u := range users {
		userViews[i] = NewParticipantView(u)
	}
	return &ServerPacket{
		Event: EventInitState,
		Data:  InitStateView{History: historyView(history), Users: userViews},
	}
}

func MakePacketUserJoined(p domain.Participant) *ServerPacket {
	return &ServerPacket{Event: EventUserJoined, Data: NewParticipantView(p)}
}

func MakePacketUserLeft(connectionId string) *ServerPacket {
	return &ServerPacket{Event: EventUserLeft, Data: UserIdView{UserId: connectionId}}
}

// MakePacketLiveSegment builds the relay of a live segment, dropping the room id.
func MakePacketLiveSegment(seg LiveSegment) *ServerPacket {
	if seg.Binary {
		return &ServerPacket{binary: AppendLiveSegment(nil, "", seg.Start, seg.End, seg.Style)}
	}
	return &ServerPacket{
		Event: EventDrawingLive,
		Data: SegmentView{
			Start: pointView(seg.Start),
			End:   pointView(seg.End),
			Style: StyleView{Color: seg.Style.Color, Width: seg.Style.Width},
		},
	}
}

func MakePacketCursorUpdate(connectionId string, x, y float64, binary bool) *ServerPacket {
	if binary {
		return &ServerPacket{binary: AppendCursor(nil, connectionId, x, y)}
	}
	return &ServerPacket{Event: EventCursorUpdate, Data: CursorView{UserId: connectionId, X: x, Y: y}}
}

func MakePacketDraw(a domain.Action) *ServerPacket {
	return &ServerPacket{Event: EventDraw, Data: NewActionView(a)}
}

func MakePacketUndo(actionId string) *ServerPacket {
	return &ServerPacket{Event: EventUndo, Data: ActionIdView{ActionId: actionId}}
}

func MakePacketRedo(actionId string) *ServerPacket {
	return &ServerPacket{Event: EventRedo, Data: ActionIdView{ActionId: actionId}}
}

func MakePacketHistory(history []domain.Action) *ServerPacket {
	return &ServerPacket{Event: EventHistoryResponse, Data: historyView(history)}
}
