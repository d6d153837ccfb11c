// Package queue manages the rtorrent download queue through the server
// batch endpoint, with a direct xmlrpc fallback for listing and removal.
package queue

import (
	"github.com/pkg/errors"

	"github.com/mediastage/stagehand/apiexternal"
	"github.com/mediastage/stagehand/logger"
)

type QueueServer interface {
	QueueBatch(action string, hashes []string) (apiexternal.ActionResponse, error)
}

// Item is one queue entry in the torrent list.
type Item struct {
	Hash      string
	Name      string
	Label     string
	Size      int
	Completed bool
	Ratio     float64
}

type Manager struct {
	srv      QueueServer
	hostname string
	insecure bool
}

func NewManager(srv QueueServer, rtorrentHostname string, insecure bool) *Manager {
	return &Manager{srv: srv, hostname: rtorrentHostname, insecure: insecure}
}

var validActions = map[string]bool{"start": true, "stop": true, "remove": true}

// Batch applies one action to all given hashes through the server. When the
// server is unreachable a remove falls back to talking to rtorrent directly.
func (m *Manager) Batch(action string, hashes []string) (string, error) {
	if !validActions[action] {
		return "", errors.Errorf("unknown queue action: %s", action)
	}
	if len(hashes) == 0 {
		return "", errors.New("nothing selected")
	}
	resp, err := m.srv.QueueBatch(action, hashes)
	if err == nil {
		if !resp.Ok() {
			return "", errors.New(resp.Text())
		}
		return resp.Text(), nil
	}
	if action != "remove" || m.hostname == "" {
		return "", errors.Wrap(err, "queue request failed")
	}
	logger.Log.Warning("queue endpoint unreachable, removing via rtorrent: ", err)
	if errr := apiexternal.RemoveFromRtorrent(m.hostname, m.insecure, hashes); errr != nil {
		return "", errors.Wrap(errr, "rtorrent remove failed")
	}
	return "removed via rtorrent", nil
}

// List reads the queue from the rtorrent instance. The server contract has
// no listing endpoint, this always goes direct.
func (m *Manager) List() ([]Item, error) {
	if m.hostname == "" {
		return nil, errors.New("rtorrent is not configured")
	}
	torrents, err := apiexternal.ListRtorrent(m.hostname, m.insecure)
	if err != nil {
		return nil, errors.Wrap(err, "rtorrent list failed")
	}
	items := make([]Item, 0, len(torrents))
	for idx := range torrents {
		items = append(items, Item{
			Hash:      torrents[idx].Hash,
			Name:      torrents[idx].Name,
			Label:     torrents[idx].Label,
			Size:      torrents[idx].Size,
			Completed: torrents[idx].Completed,
			Ratio:     torrents[idx].Ratio,
		})
	}
	return items, nil
}
