package protocol

import (
	"canvas/domain"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Message
	}{
		{
			name:  "join",
			input: `{"event":"join_room","data":{"roomId":"r1","user":{"name":"  alice  ","color":"#ff0000"}}}`,
			want:  Join{RoomId: "r1", Profile: domain.Profile{Name: "alice", Color: "#ff0000"}},
		},
		{
			name:  "join with empty profile",
			input: `{"event":"join_room","data":{"roomId":"r1","user":{}}}`,
			want:  Join{RoomId: "r1"},
		},
		{
			name:  "live segment",
			input: `{"event":"drawing_live","data":{"roomId":"r1","start":{"x":0,"y":1},"end":{"x":2.5,"y":3},"style":{"color":"#000","width":4}}}`,
			want: LiveSegment{
				RoomId: "r1",
				Start:  domain.Point{X: 0, Y: 1},
				End:    domain.Point{X: 2.5, Y: 3},
				Style:  domain.Style{Color: "#000", Width: 4},
			},
		},
		{
			name:  "finish stroke",
			input: `{"event":"draw_finish","data":{"roomId":"r1","data":{"points":[{"x":1,"y":1},{"x":2,"y":2},{"x":3,"y":1}],"color":"#00f","width":2}}}`,
			want: FinishStroke{RoomId: "r1", Stroke: domain.Stroke{
				Points: []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 1}},
				Color:  "#00f",
				Width:  2,
			}},
		},
		{
			name:  "cursor",
			input: `{"event":"cursor_move","data":{"roomId":"r1","x":-4,"y":10}}`,
			want:  CursorMove{RoomId: "r1", X: -4, Y: 10},
		},
		{
			name:  "undo",
			input: `{"event":"undo","data":{"roomId":"r1"}}`,
			want:  Undo{RoomId: "r1"},
		},
		{
			name:  "redo",
			input: `{"event":"redo","data":{"roomId":"r1"}}`,
			want:  Redo{RoomId: "r1"},
		},
		{
			name:  "history request",
			input: `{"event":"request_history","data":{"roomId":"r1"}}`,
			want:  Resync{RoomId: "r1"},
		},
		{
			name:  "unknown fields are ignored",
			input: `{"event":"undo","data":{"roomId":"r1","extra":true},"id":7}`,
			want:  Undo{RoomId: "r1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeText([]byte(tc.input))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("DecodeText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeText_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not json", input: `hello`},
		{name: "unknown event", input: `{"event":"explode","data":{"roomId":"r1"}}`, wantErr: domain.ErrUnknownEvent},
		{name: "missing event", input: `{"data":{"roomId":"r1"}}`, wantErr: domain.ErrUnknownEvent},
		{name: "missing data", input: `{"event":"undo"}`, wantErr: domain.ErrMissingRoomId},
		{name: "empty room id", input: `{"event":"undo","data":{"roomId":""}}`, wantErr: domain.ErrMissingRoomId},
		{
			name:    "room id too long",
			input:   `{"event":"redo","data":{"roomId":"` + strings.Repeat("r", MaxRoomIdLength+1) + `"}}`,
			wantErr: domain.ErrRoomIdTooLong,
		},
		{name: "room id not a string", input: `{"event":"undo","data":{"roomId":5}}`},
		{name: "join without user", input: `{"event":"join_room","data":{"roomId":"r1"}}`, wantErr: domain.ErrMissingProfile},
		{
			name:    "stroke with one point",
			input:   `{"event":"draw_finish","data":{"roomId":"r1","data":{"points":[{"x":1,"y":1}],"color":"#000","width":1}}}`,
			wantErr: domain.ErrTooFewPoints,
		},
		{
			name:    "stroke without data",
			input:   `{"event":"draw_finish","data":{"roomId":"r1"}}`,
			wantErr: domain.ErrTooFewPoints,
		},
		{
			name:    "stroke point missing y",
			input:   `{"event":"draw_finish","data":{"roomId":"r1","data":{"points":[{"x":1},{"x":2,"y":2}],"color":"#000","width":1}}}`,
			wantErr: domain.ErrNonFiniteNumber,
		},
		{
			name:    "stroke without color",
			input:   `{"event":"draw_finish","data":{"roomId":"r1","data":{"points":[{"x":1,"y":1},{"x":2,"y":2}],"width":1}}}`,
			wantErr: domain.ErrInvalidStyle,
		},
		{
			name:    "stroke with zero width",
			input:   `{"event":"draw_finish","data":{"roomId":"r1","data":{"points":[{"x":1,"y":1},{"x":2,"y":2}],"color":"#000","width":0}}}`,
			wantErr: domain.ErrInvalidStyle,
		},
		{
			name:  "stroke with overflowing coordinate",
			input: `{"event":"draw_finish","data":{"roomId":"r1","data":{"points":[{"x":1e999,"y":1},{"x":2,"y":2}],"color":"#000","width":1}}}`,
		},
		{
			name:    "segment without end",
			input:   `{"event":"drawing_live","data":{"roomId":"r1","start":{"x":0,"y":1},"style":{"color":"#000","width":4}}}`,
			wantErr: domain.ErrTooFewPoints,
		},
		{
			name:    "segment without style",
			input:   `{"event":"drawing_live","data":{"roomId":"r1","start":{"x":0,"y":1},"end":{"x":0,"y":1}}}`,
			wantErr: domain.ErrInvalidStyle,
		},
		{
			name:    "segment without room",
			input:   `{"event":"drawing_live","data":{"start":{"x":0,"y":1},"end":{"x":0,"y":1},"style":{"color":"#000","width":4}}}`,
			wantErr: domain.ErrMissingRoomId,
		},
		{
			name:    "cursor without y",
			input:   `{"event":"cursor_move","data":{"roomId":"r1","x":1}}`,
			wantErr: domain.ErrNonFiniteNumber,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg, err := DecodeText([]byte(tc.input))

			assert.Nil(t, msg)
			assert.ErrorIs(t, err, domain.ErrMalformedMessage)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestDecodeText_TooManyPoints(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	sb.WriteString(`{"event":"draw_finish","data":{"roomId":"r1","data":{"color":"#000","width":1,"points":[`)
	for i := range MaxStrokePoints + 1 {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(`{"x":1,"y":1}`)
	}
	sb.WriteString(`]}}}`)

	_, err := DecodeText([]byte(sb.String()))

	assert.ErrorIs(t, err, domain.ErrTooManyPoints)
}

func TestDecodeText_TruncatesLongNames(t *testing.T) {
	t.Parallel()
	name := strings.Repeat("é", MaxNameLength+10)

	msg, err := DecodeText([]byte(`{"event":"join_room","data":{"roomId":"r1","user":{"name":"` + name + `","color":"#fff"}}}`))

	require.NoError(t, err)
	join, ok := msg.(Join)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("é", MaxNameLength), join.Profile.Name)
}
