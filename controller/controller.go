// Package controller owns the view state and wires user actions to the
// flows. All mutable state lives in one State instance held here, handlers
// get it by reference.
package controller

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mediastage/stagehand/apiexternal"
	"github.com/mediastage/stagehand/config"
	"github.com/mediastage/stagehand/dispatch"
	"github.com/mediastage/stagehand/logger"
	"github.com/mediastage/stagehand/mapper"
	"github.com/mediastage/stagehand/queue"
	"github.com/mediastage/stagehand/stager"
	"github.com/mediastage/stagehand/toggle"
	"github.com/mediastage/stagehand/view"
)

// Server is the slice of the media server api the controller itself uses,
// the flow packages declare their own slices.
type Server interface {
	ToggleWatched(ratingKey string, userID string) (apiexternal.WatchedResponse, error)
	ToggleMonitored(mediaType string, id string, monitored bool) (apiexternal.ActionResponse, error)
	BulkDelete(ids []string) (apiexternal.ActionResponse, error)
	Users() ([]apiexternal.PlexUser, error)
}

type Controller struct {
	srv    Server
	State  *view.State
	Stager *stager.Stager
	Mapper *mapper.Mapper
	Queue  *queue.Manager
	Disp   *dispatch.Dispatcher

	// LastMessage holds the text of the last completed action for display.
	LastMessage string
}

func New(srv Server, st *stager.Stager, mp *mapper.Mapper, qm *queue.Manager, state *view.State) *Controller {
	c := &Controller{srv: srv, State: state, Stager: st, Mapper: mp, Queue: qm, Disp: dispatch.NewDispatcher()}
	c.register()
	return c
}

func (c *Controller) register() {
	c.Disp.Register("move", dispatch.Spec{
		Class:    "move",
		Required: []string{"mediaid", "mediatype", "destination"},
		Run:      c.runMove,
	})
	c.Disp.Register("bulkmove", dispatch.Spec{
		Class:    "move",
		Required: []string{"destination"},
		NeedIDs:  true,
		Run:      c.runBulkMove,
	})
	c.Disp.Register("toggle_watched", dispatch.Spec{
		Class:    "toggle",
		Required: []string{"ratingkey"},
		Run:      c.runToggleWatched,
	})
	c.Disp.Register("toggle_monitored", dispatch.Spec{
		Class:    "toggle",
		Required: []string{"mediatype", "targetid"},
		Run:      c.runToggleMonitored,
	})
	c.Disp.Register("bulk_delete", dispatch.Spec{
		Class:   "delete",
		NeedIDs: true,
		Run:     c.runBulkDelete,
	})
	c.Disp.Register("apply_filter", dispatch.Spec{
		Class: "refresh",
		Run:   c.runApplyFilter,
	})
	c.Disp.Register("map", dispatch.Spec{
		Class:    "map",
		Required: []string{"mediaid", "mediatype", "targetid"},
		Run:      c.runMap,
	})
	c.Disp.Register("queue_batch", dispatch.Spec{
		Class:    "queue",
		Required: []string{"op"},
		NeedIDs:  true,
		Run:      c.runQueueBatch,
	})
}

func (c *Controller) runMove(a dispatch.Action) error {
	done, err := c.Stager.MoveSingle(a.MediaID, a.MediaType, a.Destination)
	if err != nil {
		return err
	}
	res := <-done
	c.LastMessage = res.Message
	if res.Failed {
		return errors.New(res.Message)
	}
	return nil
}

func (c *Controller) runBulkMove(a dispatch.Action) error {
	for idx := range a.IDs {
		c.State.Selection.Toggle(a.IDs[idx], true)
	}
	done, err := c.Stager.BulkMove(a.Destination)
	if err != nil {
		return err
	}
	res := <-done
	c.LastMessage = res.Message
	if res.Failed {
		return errors.New(res.Message)
	}
	return nil
}

// watchedCtrl adapts one table row to the toggle Control interface.
type watchedCtrl struct {
	t  *view.Table
	id string
}

func (w watchedCtrl) Bool() bool {
	row, _ := w.t.Find(w.id)
	return row.Watched
}
func (w watchedCtrl) SetBool(v bool) { w.t.SetWatched(w.id, v) }

func (c *Controller) runToggleWatched(a dispatch.Action) error {
	userid := a.UserID
	if userid == "" {
		userid = c.State.LastUser
	}
	if userid == "" {
		return errors.New("required field missing: userid")
	}
	ctrl := watchedCtrl{t: &c.State.Table, id: a.RatingKey}
	next := !ctrl.Bool()
	var resp apiexternal.WatchedResponse
	err := toggle.Apply(ctrl, next, func(bool) error {
		r, errt := c.srv.ToggleWatched(a.RatingKey, userid)
		if errt != nil {
			return errt
		}
		if !r.Ok() {
			return errors.New(r.Text())
		}
		resp = r
		return nil
	})
	if err != nil {
		return err
	}
	// the server answer is authoritative when it differs from the flip
	if resp.NewStatus != nil {
		ctrl.SetBool(*resp.NewStatus)
	}
	if resp.NewStatusHTML != "" {
		logger.Log.Debug("watched fragment: ", resp.NewStatusHTML)
	}
	c.LastMessage = resp.Text()
	return nil
}

func (c *Controller) runToggleMonitored(a dispatch.Action) error {
	node := &toggle.Node{
		Ctrl: toggle.NewField(!a.Flag),
		Req:  c.monitoredReq(a.MediaType, a.TargetID),
	}
	for idx := range a.IDs {
		childtype, childid := splitChild(a.IDs[idx])
		if childid == "" {
			return errors.Errorf("bad child id: %s", a.IDs[idx])
		}
		node.Children = append(node.Children, &toggle.Node{
			Ctrl: toggle.NewField(!a.Flag),
			Req:  c.monitoredReq(childtype, childid),
		})
	}
	errs := node.Cascade(a.Flag)
	for idx := range errs {
		logger.Log.Warning("monitored toggle reverted: ", errs[idx])
	}
	if len(errs) != 0 {
		return errors.Errorf("%d of %d monitored toggles failed", len(errs), len(a.IDs)+1)
	}
	c.State.Table.SetMonitored(a.TargetID, a.Flag)
	return nil
}

func (c *Controller) monitoredReq(mediaType string, id string) toggle.RequestFunc {
	return func(next bool) error {
		resp, err := c.srv.ToggleMonitored(mediaType, id, next)
		if err != nil {
			return err
		}
		if !resp.Ok() {
			return errors.New(resp.Text())
		}
		return nil
	}
}

// splitChild parses "season:12" style child references.
func splitChild(s string) (string, string) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func (c *Controller) runBulkDelete(a dispatch.Action) error {
	resp, err := c.srv.BulkDelete(a.IDs)
	if err != nil {
		return errors.Wrap(err, "bulk delete request failed")
	}
	if !resp.Ok() {
		return errors.New(resp.Text())
	}
	c.State.Table.RemoveRows(a.IDs)
	c.State.Selection.Prune(&c.State.Table)
	c.LastMessage = resp.Text()
	return nil
}

func (c *Controller) runApplyFilter(a dispatch.Action) error {
	c.State.Filter = a.Query
	if a.MediaType != "" {
		c.State.AppType = a.MediaType
	}
	return c.Stager.Refresh()
}

func (c *Controller) runMap(a dispatch.Action) error {
	row, _ := c.State.Table.Find(a.MediaID)
	return c.Mapper.Map(a.MediaID, row.Path, a.MediaType, a.TargetID)
}

func (c *Controller) runQueueBatch(a dispatch.Action) error {
	msg, err := c.Queue.Batch(a.Op, a.IDs)
	if err != nil {
		return err
	}
	c.LastMessage = msg
	return nil
}

// Users fetches the Plex user list for the selection dropdown.
func (c *Controller) Users() ([]apiexternal.PlexUser, error) {
	return c.srv.Users()
}

// SelectUser stores the chosen user as the persisted preference and in the
// current view state.
func (c *Controller) SelectUser(id string) {
	c.State.LastUser = id
	if err := config.SetLastUser(id); err != nil {
		logger.Log.Warning("storing user preference failed: ", err)
	}
}
