package protocol

import (
	"canvas/domain"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Top-level field numbers of a binary frame. Only the best-effort kinds travel as binary.
const (
	fieldLiveSegment protowire.Number = 1
	fieldCursor      protowire.Number = 2
)

// LiveSegment fields.
const (
	segRoomId protowire.Number = 1
	segStart  protowire.Number = 2
	segEnd    protowire.Number = 3
	segColor  protowire.Number = 4
	segWidth  protowire.Number = 5
)

// CursorMove / CursorUpdate fields. Field 1 is the room id inbound and the user id outbound.
const (
	curId protowire.Number = 1
	curX  protowire.Number = 2
	curY  protowire.Number = 3
)

var errTrailingBytes = errors.New("trailing-bytes")

// DecodeBinary parses a binary frame. The frame must hold exactly one length-delimited
// top-level field.
func DecodeBinary(data []byte) (Message, error) {
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 {
		return nil, malformed(protowire.ParseError(n))
	}
	if typ != protowire.BytesType {
		return nil, malformed(fmt.Errorf("%w: field %d has wire type %d", domain.ErrUnknownEvent, num, typ))
	}
	body, m := protowire.ConsumeBytes(data[n:])
	if m < 0 {
		return nil, malformed(protowire.ParseError(m))
	}
	if n+m != len(data) {
		return nil, malformed(errTrailingBytes)
	}

	switch num {
	case fieldLiveSegment:
		return decodeBinarySegment(body)
	case fieldCursor:
		return decodeBinaryCursor(body)
	default:
		return nil, malformed(fmt.Errorf("%w: field %d", domain.ErrUnknownEvent, num))
	}
}

func decodeBinarySegment(b []byte) (Message, error) {
	msg := LiveSegment{Binary: true}
	var hasStart, hasEnd bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == segRoomId && typ == protowire.BytesType:
			msg.RoomId, n = protowire.ConsumeString(b)
		case (num == segStart || num == segEnd) && typ == protowire.BytesType:
			var body []byte
			body, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				p, err := decodeBinaryPoint(body)
				if err != nil {
					return nil, err
				}
				if num == segStart {
					msg.Start, hasStart = p, true
				} else {
					msg.End, hasEnd = p, true
				}
			}
		case num == segColor && typ == protowire.BytesType:
			msg.Style.Color, n = protowire.ConsumeString(b)
		case num == segWidth && typ == protowire.Fixed64Type:
			var bits uint64
			bits, n = protowire.ConsumeFixed64(b)
			msg.Style.Width = math.Float64frombits(bits)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		b = b[n:]
	}

	if !hasStart || !hasEnd {
		return nil, malformed(domain.ErrTooFewPoints)
	}
	if err := validateSegment(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeBinaryPoint(b []byte) (domain.Point, error) {
	var p domain.Point
	var hasX, hasY bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		var bits uint64
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			bits, n = protowire.ConsumeFixed64(b)
			p.X, hasX = math.Float64frombits(bits), true
		case num == 2 && typ == protowire.Fixed64Type:
			bits, n = protowire.ConsumeFixed64(b)
			p.Y, hasY = math.Float64frombits(bits), true
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return p, malformed(protowire.ParseError(n))
		}
		b = b[n:]
	}
	if !hasX || !hasY {
		return p, malformed(domain.ErrNonFiniteNumber)
	}
	return p, nil
}

func decodeBinaryCursor(b []byte) (Message, error) {
	msg := CursorMove{Binary: true}
	var hasX, hasY bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		var bits uint64
		switch {
		case num == curId && typ == protowire.BytesType:
			msg.RoomId, n = protowire.ConsumeString(b)
		case num == curX && typ == protowire.Fixed64Type:
			bits, n = protowire.ConsumeFixed64(b)
			msg.X, hasX = math.Float64frombits(bits), true
		case num == curY && typ == protowire.Fixed64Type:
			bits, n = protowire.ConsumeFixed64(b)
			msg.Y, hasY = math.Float64frombits(bits), true
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		b = b[n:]
	}

	if !hasX || !hasY {
		return nil, malformed(domain.ErrNonFiniteNumber)
	}
	if err := validateCursor(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func appendPoint(b []byte, num protowire.Number, p domain.Point) []byte {
	var body []byte
	body = appendDouble(body, 1, p.X)
	body = appendDouble(body, 2, p.Y)
	return appendMessage(b, num, body)
}

// AppendLiveSegment encodes a segment as a binary frame. The room id is written only when
// non-empty, so the same function serves clients (with a room) and relays (without).
func AppendLiveSegment(b []byte, roomId string, start, end domain.Point, style domain.Style) []byte {
	var body []byte
	body = appendString(body, segRoomId, roomId)
	body = appendPoint(body, segStart, start)
	body = appendPoint(body, segEnd, end)
	body = appendString(body, segColor, style.Color)
	body = appendDouble(body, segWidth, style.Width)
	return appendMessage(b, fieldLiveSegment, body)
}

// AppendCursor encodes a cursor frame. id is the room id for client frames and the
// connection id for relayed updates.
func AppendCursor(b []byte, id string, x, y float64) []byte {
	var body []byte
	body = appendString(body, curId, id)
	body = appendDouble(body, curX, x)
	body = appendDouble(body, curY, y)
	return appendMessage(b, fieldCursor, body)
}
