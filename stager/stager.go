// Package stager drives the staging move operations. A move runs server
// side, the stager launches it, tracks it through the status endpoint and
// reconciles the table when it ends.
package stager

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mediastage/stagehand/apiexternal"
	"github.com/mediastage/stagehand/logger"
	"github.com/mediastage/stagehand/parser"
	"github.com/mediastage/stagehand/poller"
	"github.com/mediastage/stagehand/view"
)

// MediaServer is the slice of the server api the stager needs.
type MediaServer interface {
	Move(mediaID string, mediaType string, newPath string) (apiexternal.MoveResponse, error)
	MoveStatus() (apiexternal.MoveStatus, error)
	BulkMove(items []apiexternal.BulkMoveItem) (apiexternal.MoveResponse, error)
	BulkMoveStatus(taskID string) (apiexternal.MoveStatus, error)
	Staging(mediaType string, filter string) ([]apiexternal.StagingFile, error)
}

// Result is the outcome of one tracked move task.
type Result struct {
	Failed    bool
	Message   string
	Successes []string
}

type Stager struct {
	srv    MediaServer
	state  *view.State
	single *poller.Poller
	bulk   *poller.Poller

	// Notify is called with a summary after a bulk move ends, when set.
	Notify func(message string, title string)

	mu          sync.Mutex
	activeMedia string
	activeTask  string
}

func NewStager(srv MediaServer, state *view.State, singleInterval time.Duration, bulkInterval time.Duration) *Stager {
	return &Stager{
		srv:    srv,
		state:  state,
		single: poller.New("move", singleInterval),
		bulk:   poller.New("bulk_move", bulkInterval),
	}
}

// Active reports whether a move class task is currently tracked. Only one
// is allowed at a time, the server stays the ultimate arbiter.
func (s *Stager) Active() bool {
	return s.single.IsActive() || s.bulk.IsActive()
}

// ActiveMedia returns the media id of the tracked single move, empty when none.
func (s *Stager) ActiveMedia() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeMedia
}

// MoveSingle launches a move for one media item and polls until it ends.
// The returned channel receives exactly one Result.
func (s *Stager) MoveSingle(mediaID string, mediaType string, newPath string) (<-chan Result, error) {
	if s.Active() {
		return nil, errors.New("a move task is already running - please wait")
	}
	resp, err := s.srv.Move(mediaID, mediaType, newPath)
	if err != nil {
		return nil, errors.Wrap(err, "move request failed")
	}
	if !resp.Ok() {
		return nil, errors.New(resp.Text())
	}

	s.mu.Lock()
	s.activeMedia = mediaID
	s.activeTask = resp.TaskID
	s.mu.Unlock()

	out := make(chan Result, 1)
	errp := s.single.Start(func() (poller.StatusInfo, error) {
		st, errs := s.srv.MoveStatus()
		if errs != nil {
			return poller.StatusInfo{}, errs
		}
		return poller.StatusInfo{State: st.Status, Message: st.Message}, nil
	}, func(info poller.StatusInfo, errdone error) {
		s.mu.Lock()
		s.activeMedia = ""
		s.activeTask = ""
		s.mu.Unlock()
		out <- s.reconcile([]string{mediaID}, info, errdone)
	})
	if errp != nil {
		return nil, errp
	}
	return out, nil
}

// BulkMove launches one move task for the current selection and polls the
// per task status endpoint until it ends.
func (s *Stager) BulkMove(destination string) (<-chan Result, error) {
	if s.Active() {
		return nil, errors.New("a move task is already running - please wait")
	}
	ids := s.state.Selection.IDs()
	if len(ids) == 0 {
		return nil, errors.New("nothing selected")
	}
	items := make([]apiexternal.BulkMoveItem, 0, len(ids))
	for idx := range ids {
		row, ok := s.state.Table.Find(ids[idx])
		if !ok {
			continue
		}
		items = append(items, apiexternal.BulkMoveItem{PlexID: row.ID, MediaType: row.MediaType, Destination: destination})
	}
	resp, err := s.srv.BulkMove(items)
	if err != nil {
		return nil, errors.Wrap(err, "bulk move request failed")
	}
	if !resp.Ok() {
		return nil, errors.New(resp.Text())
	}
	taskid := resp.TaskID

	s.mu.Lock()
	s.activeTask = taskid
	s.mu.Unlock()

	out := make(chan Result, 1)
	errp := s.bulk.Start(func() (poller.StatusInfo, error) {
		st, errs := s.srv.BulkMoveStatus(taskid)
		if errs != nil {
			return poller.StatusInfo{}, errs
		}
		return poller.StatusInfo{State: st.Status, Message: st.Message, Successes: st.Successes}, nil
	}, func(info poller.StatusInfo, errdone error) {
		s.mu.Lock()
		s.activeTask = ""
		s.mu.Unlock()
		res := s.reconcile(info.Successes, info, errdone)
		if s.Notify != nil {
			s.Notify(res.Message, "stagehand bulk move")
		}
		out <- res
	})
	if errp != nil {
		return nil, errp
	}
	return out, nil
}

// Stop abandons any tracked move task without reconciling.
func (s *Stager) Stop() {
	s.single.Stop()
	s.bulk.Stop()
	s.mu.Lock()
	s.activeMedia = ""
	s.activeTask = ""
	s.mu.Unlock()
}

// reconcile applies the terminal status to the table. Completed moves dim
// and remove their rows and clear the selection, failures leave everything
// in place for a retry.
func (s *Stager) reconcile(ids []string, info poller.StatusInfo, errdone error) Result {
	if errdone != nil {
		logger.Log.Error("move status check failed: ", errdone)
		return Result{Failed: true, Message: "communication error - please retry"}
	}
	if info.Failed() {
		msg := info.Message
		if msg == "" {
			msg = "move failed"
		}
		logger.Log.Warning("move task failed: ", msg)
		return Result{Failed: true, Message: msg}
	}
	if len(ids) != 0 {
		s.state.Table.DimRows(ids)
		s.state.Table.RemoveRows(ids)
	}
	s.state.Selection.Clear()
	if err := s.Refresh(); err != nil {
		logger.Log.Warning("refresh after move failed: ", err)
	}
	msg := info.Message
	if msg == "" {
		msg = "move completed"
	}
	return Result{Message: msg, Successes: ids}
}

// Refresh re-fetches the staging list with the current filter and rebuilds
// the table, pruning selections whose rows are gone.
func (s *Stager) Refresh() error {
	files, err := s.srv.Staging(s.state.AppType, s.state.Filter)
	if err != nil {
		return errors.Wrap(err, "staging fetch failed")
	}
	rows := make([]view.Row, 0, len(files))
	for idx := range files {
		rows = append(rows, view.Row{
			ID:        files[idx].ID,
			Title:     parser.CleanTitle(files[idx].Name),
			MediaType: files[idx].MediaType,
			Path:      files[idx].Path,
			Size:      files[idx].Size,
			Year:      parser.ParseYear(files[idx].Name),
		})
	}
	s.state.Table.SetRows(rows)
	s.state.Selection.Prune(&s.state.Table)
	return nil
}
