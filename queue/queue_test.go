package queue

import (
	"errors"
	"testing"

	"github.com/mediastage/stagehand/apiexternal"
)

type fakeQueueServer struct {
	action string
	hashes []string
	resp   apiexternal.ActionResponse
	err    error
}

func (f *fakeQueueServer) QueueBatch(action string, hashes []string) (apiexternal.ActionResponse, error) {
	f.action = action
	f.hashes = hashes
	return f.resp, f.err
}

func TestBatchValidation(t *testing.T) {
	srv := &fakeQueueServer{}
	m := NewManager(srv, "", false)

	tests := []struct {
		name   string
		action string
		hashes []string
	}{
		{name: "Unknown action", action: "pause", hashes: []string{"h1"}},
		{name: "Empty selection", action: "start", hashes: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Batch(tt.action, tt.hashes); err == nil {
				t.Error("expected a validation error")
			}
			if srv.action != "" {
				t.Error("invalid input must never reach the server")
			}
		})
	}
}

func TestBatchServerPath(t *testing.T) {
	srv := &fakeQueueServer{resp: apiexternal.ActionResponse{Status: "success", Message: "3 started"}}
	m := NewManager(srv, "", false)

	msg, err := m.Batch("start", []string{"h1", "h2", "h3"})
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if msg != "3 started" {
		t.Errorf("message = %q", msg)
	}
	if srv.action != "start" || len(srv.hashes) != 3 {
		t.Errorf("server saw %s/%v", srv.action, srv.hashes)
	}
}

func TestBatchServerRejection(t *testing.T) {
	srv := &fakeQueueServer{resp: apiexternal.ActionResponse{Status: "error", Message: "hash unknown"}}
	m := NewManager(srv, "", false)

	if _, err := m.Batch("stop", []string{"h1"}); err == nil || err.Error() != "hash unknown" {
		t.Errorf("Batch() error = %v, want the server message", err)
	}
}

func TestBatchNoFallbackForStart(t *testing.T) {
	// only removals may bypass an unreachable server
	srv := &fakeQueueServer{err: errors.New("connection refused")}
	m := NewManager(srv, "rtorrent:5000", false)

	if _, err := m.Batch("start", []string{"h1"}); err == nil {
		t.Error("start must fail hard when the server is down")
	}
}

func TestBatchRemoveNeedsRtorrentConfig(t *testing.T) {
	srv := &fakeQueueServer{err: errors.New("connection refused")}
	m := NewManager(srv, "", false)

	if _, err := m.Batch("remove", []string{"h1"}); err == nil {
		t.Error("remove without a configured rtorrent must fail when the server is down")
	}
}

func TestListNeedsRtorrentConfig(t *testing.T) {
	m := NewManager(&fakeQueueServer{}, "", false)
	if _, err := m.List(); err == nil {
		t.Error("List() must fail without an rtorrent hostname")
	}
}
