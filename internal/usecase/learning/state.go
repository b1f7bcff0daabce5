package learning

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/usecase/aggregate"
)

// Face is the display state of the current card.
type Face int

const (
	// FaceFrontFirstShow is the initial face: the back has not been revealed
	// during this visit.
	FaceFrontFirstShow Face = iota
	// FaceBack shows the answer.
	FaceBack
	// FaceFront shows the prompt again after at least one flip.
	FaceFront
)

var faceNames = map[Face]string{
	FaceFrontFirstShow: "front_first_show",
	FaceBack:           "back",
	FaceFront:          "front",
}

func (f Face) String() string {
	if name, ok := faceNames[f]; ok {
		return name
	}
	return fmt.Sprintf("face(%d)", int(f))
}

func (f Face) MarshalText() ([]byte, error) {
	if _, ok := faceNames[f]; !ok {
		return nil, fmt.Errorf("unknown face %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Face) UnmarshalText(text []byte) error {
	for face, name := range faceNames {
		if name == string(text) {
			*f = face
			return nil
		}
	}
	return fmt.Errorf("unknown face %q", text)
}

// LoadStatus separates "still loading", "loaded" (possibly empty) and
// "could not load".
type LoadStatus int

const (
	StatusLoading LoadStatus = iota
	StatusLoaded
	StatusErrored
)

var statusNames = map[LoadStatus]string{
	StatusLoading: "loading",
	StatusLoaded:  "loaded",
	StatusErrored: "errored",
}

func (s LoadStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s LoadStatus) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown load status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *LoadStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown load status %q", text)
}

// Action names a transition the learner may trigger from the current view.
type Action string

const (
	ActionTurn        Action = "turn"
	ActionShuffle     Action = "shuffle"
	ActionMarkKnown   Action = "mark_known"
	ActionMarkUnknown Action = "mark_unknown"
	ActionResetSet    Action = "reset_set"
)

// View is an immutable snapshot of a session for rendering.
type View struct {
	CategoryID string             `json:"category_id"`
	Status     LoadStatus         `json:"status"`
	Card       *entity.Flashcard  `json:"card,omitempty"`
	Face       Face               `json:"face"`
	Complete   bool               `json:"complete"`
	Counters   aggregate.Counters `json:"counters"`
	Actions    []Action           `json:"actions"`
	// Warning carries the last failed optimistic write. It never blocks
	// further actions.
	Warning string `json:"warning,omitempty"`
	// Error is set when Status is StatusErrored.
	Error string `json:"error,omitempty"`
}

// Can reports whether action is currently available.
func (v View) Can(action Action) bool {
	return lo.Contains(v.Actions, action)
}

// Empty reports a loaded category that has no flashcards at all.
func (v View) Empty() bool {
	return v.Status == StatusLoaded && v.Counters.Total == 0
}
