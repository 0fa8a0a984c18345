package protocol

import (
	"canvas/domain"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MaxRoomIdLength = 128
	MaxNameLength   = 64
	MaxColorLength  = 32
	MaxStrokePoints = 20000
)

// Message is an inbound client message. The set of implementations is closed:
// Join, LiveSegment, FinishStroke, CursorMove, Undo, Redo and Resync.
type Message interface {
	Room() string
	isMessage()
}

type Join struct {
	RoomId  string
	Profile domain.Profile
}

// LiveSegment is an in-progress piece of a stroke. Binary records whether it arrived on a
// binary frame so the relay can answer in kind.
type LiveSegment struct {
	RoomId string
	Start  domain.Point
	End    domain.Point
	Style  domain.Style
	Binary bool
}

type FinishStroke struct {
	RoomId string
	Stroke domain.Stroke
}

type CursorMove struct {
	RoomId string
	X      float64
	Y      float64
	Binary bool
}

type Undo struct{ RoomId string }

type Redo struct{ RoomId string }

type Resync struct{ RoomId string }

func (m Join) Room() string         { return m.RoomId }
func (m LiveSegment) Room() string  { return m.RoomId }
func (m FinishStroke) Room() string { return m.RoomId }
func (m CursorMove) Room() string   { return m.RoomId }
func (m Undo) Room() string         { return m.RoomId }
func (m Redo) Room() string         { return m.RoomId }
func (m Resync) Room() string       { return m.RoomId }

func (Join) isMessage()         {}
func (LiveSegment) isMessage()  {}
func (FinishStroke) isMessage() {}
func (CursorMove) isMessage()   {}
func (Undo) isMessage()         {}
func (Redo) isMessage()         {}
func (Resync) isMessage()       {}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrMalformedMessage, err)
}

func validateRoomId(roomId string) error {
	switch {
	case roomId == "":
		return malformed(domain.ErrMissingRoomId)
	case len(roomId) > MaxRoomIdLength:
		return malformed(domain.ErrRoomIdTooLong)
	}
	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func validateStyle(color string, width float64) error {
	if color == "" || len(color) > MaxColorLength {
		return malformed(domain.ErrInvalidStyle)
	}
	if !finite(width) || width <= 0 {
		return malformed(domain.ErrInvalidStyle)
	}
	return nil
}

func validatePoints(points ...domain.Point) error {
	for _, p := range points {
		if !finite(p.X, p.Y) {
			return malformed(domain.ErrNonFiniteNumber)
		}
	}
	return nil
}

func validateStroke(s domain.Stroke) error {
	if len(s.Points) < 2 {
		return malformed(domain.ErrTooFewPoints)
	}
	if len(s.Points) > MaxStrokePoints {
		return malformed(domain.ErrTooManyPoints)
	}
	if err := validatePoints(s.Points...); err != nil {
		return err
	}
	return validateStyle(s.Color, s.Width)
}

func validateSegment(m LiveSegment) error {
	if err := validateRoomId(m.RoomId); err != nil {
		return err
	}
	if err := validatePoints(m.Start, m.End); err != nil {
		return err
	}
	return validateStyle(m.Style.Color, m.Style.Width)
}

func validateCursor(m CursorMove) error {
	if err := validateRoomId(m.RoomId); err != nil {
		return err
	}
	if !finite(m.X, m.Y) {
		return malformed(domain.ErrNonFiniteNumber)
	}
	return nil
}

// normalizeProfile trims the display name and cuts it to MaxNameLength runes.
func normalizeProfile(p domain.Profile) domain.Profile {
	name := strings.TrimSpace(p.Name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	color := strings.TrimSpace(p.Color)
	if len(color) > MaxColorLength {
		color = ""
	}
	return domain.Profile{Name: name, Color: color}
}
