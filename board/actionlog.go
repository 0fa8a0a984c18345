package board

import (
	"canvas/domain"
	"slices"
	"time"
)

// ActionLog is the ordered history of a room.
//
// Undo and redo are global and linear: any participant's undo removes the most recent
// committed action no matter who drew it, and redo restores the most recently undone one.
// Committing a new action discards everything that was undone; there is no branching.
//
// ActionLog is not safe for concurrent use. Room serializes access to it.
type ActionLog struct {
	committed []domain.Action
	// undone is a stack: the last element is the most recently undone action.
	undone []domain.Action
	// limit caps committed; 0 means unbounded.
	limit int
	ids   UniqueIdGenerator
	now   func() time.Time
}

func NewActionLog(limit int, ids UniqueIdGenerator) *ActionLog {
	return &ActionLog{
		committed: make([]domain.Action, 0, 64),
		limit:     limit,
		ids:       ids,
		now:       time.Now,
	}
}

// Append commits a new draw action and clears the redo buffer. When the log is over its
// limit the oldest committed action is dropped.
func (l *ActionLog) Append(authorId string, stroke domain.Stroke) domain.Action {
	action := domain.Action{
		Id:        l.ids.Generate(),
		AuthorId:  authorId,
		CreatedAt: l.now(),
		Kind:      domain.ActionDraw,
		Stroke:    stroke,
	}
	l.committed = append(l.committed, action)
	l.undone = nil

	if l.limit > 0 && len(l.committed) > l.limit {
		// the dropped prefix is cleared so its strokes can be collected
		overflow := len(l.committed) - l.limit
		clear(l.committed[:overflow])
		l.committed = l.committed[overflow:]
	}
	return action
}

func (l *ActionLog) Undo() (domain.Action, bool) {
	if len(l.committed) == 0 {
		return domain.Action{}, false
	}
	last := len(l.committed) - 1
	action := l.committed[last]
	l.committed = l.committed[:last]
	l.undone = append(l.undone, action)
	return action, true
}

func (l *ActionLog) Redo() (domain.Action, bool) {
	if len(l.undone) == 0 {
		return domain.Action{}, false
	}
	last := len(l.undone) - 1
	action := l.undone[last]
	l.undone = l.undone[:last]
	l.committed = append(l.committed, action)
	return action, true
}

// Snapshot returns the committed actions in render order. The returned slice is a copy.
func (l *ActionLog) Snapshot() []domain.Action {
	return slices.Clone(l.committed)
}

func (l *ActionLog) Len() int {
	return len(l.committed)
}

func (l *ActionLog) UndoneLen() int {
	return len(l.undone)
}
