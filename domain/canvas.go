package domain

import "time"

type ActionKind string

const ActionDraw ActionKind = "draw"

type Point struct {
	X float64
	Y float64
}

// Stroke is a finished line: the ordered points a pointer went through plus its style.
type Stroke struct {
	Points []Point
	Color  string
	Width  float64
}

type Style struct {
	Color string
	Width float64
}

// Action is one committed stroke. Fields are never modified after the action is created;
// only its place in a log (committed or undone) changes.
type Action struct {
	Id        string
	AuthorId  string
	CreatedAt time.Time
	Kind      ActionKind
	Stroke    Stroke
}

// Profile is what a client tells us about itself when joining.
type Profile struct {
	Name  string
	Color string
}

type Participant struct {
	ConnectionId string
	Name         string
	Color        string
	CursorX      float64
	CursorY      float64
}
