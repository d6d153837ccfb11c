// Package dispatch routes named user actions to handlers. Parameters are
// typed once at the boundary instead of being re-read from loose strings in
// every handler, and an operation class is marked busy synchronously before
// its handler runs so a rapid double invocation cannot submit twice.
package dispatch

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mediastage/stagehand/logger"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBusy          = errors.New("action still running - please wait")
)

// Action carries everything a handler may need. Unused fields stay zero.
type Action struct {
	Name        string
	MediaID     string
	MediaType   string
	RatingKey   string
	UserID      string
	Destination string
	Query       string
	TargetID    string
	Op          string
	Flag        bool
	IDs         []string
}

func (a Action) field(name string) string {
	switch name {
	case "mediaid":
		return a.MediaID
	case "mediatype":
		return a.MediaType
	case "ratingkey":
		return a.RatingKey
	case "userid":
		return a.UserID
	case "destination":
		return a.Destination
	case "query":
		return a.Query
	case "targetid":
		return a.TargetID
	case "op":
		return a.Op
	}
	return ""
}

// Handler runs a validated action.
type Handler func(a Action) error

// Spec registers a handler with its operation class and the fields that must
// be non empty before anything is sent.
type Spec struct {
	Class    string
	Required []string
	NeedIDs  bool
	Run      Handler
}

type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string]Spec
	busy     map[string]bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Spec, 10), busy: make(map[string]bool, 10)}
}

func (d *Dispatcher) Register(name string, s Spec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.Class == "" {
		s.Class = name
	}
	d.handlers[name] = s
}

// Trigger validates and runs the action. Validation failures and the busy
// guard reject before any request is issued.
func (d *Dispatcher) Trigger(a Action) error {
	d.mu.Lock()
	s, ok := d.handlers[a.Name]
	if !ok {
		d.mu.Unlock()
		return errors.Wrap(ErrUnknownAction, a.Name)
	}
	for idx := range s.Required {
		if a.field(s.Required[idx]) == "" {
			d.mu.Unlock()
			return errors.Errorf("required field missing: %s", s.Required[idx])
		}
	}
	if s.NeedIDs && len(a.IDs) == 0 {
		d.mu.Unlock()
		return errors.New("nothing selected")
	}
	if d.busy[s.Class] {
		d.mu.Unlock()
		return ErrBusy
	}
	d.busy[s.Class] = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.busy[s.Class] = false
		d.mu.Unlock()
	}()
	err := s.Run(a)
	if err != nil {
		logger.Log.Warning("action ", a.Name, " failed: ", err)
	}
	return err
}

// IsBusy reports whether an operation class currently runs a handler.
func (d *Dispatcher) IsBusy(class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy[class]
}
