package apiexternal

import (
	"github.com/mrobinsn/go-rtorrent/rtorrent"
)

// ListRtorrent reads the main view of the rtorrent instance directly.
// Used as a fallback when the server queue endpoint is not reachable.
func ListRtorrent(hostname string, insecure bool) ([]rtorrent.Torrent, error) {
	cl := rtorrent.New(hostname, insecure)
	return cl.GetTorrents(rtorrent.ViewMain)
}

// RemoveFromRtorrent deletes the torrents with the given hashes from the
// rtorrent instance directly.
func RemoveFromRtorrent(hostname string, insecure bool, hashes []string) error {
	cl := rtorrent.New(hostname, insecure)
	torrents, err := cl.GetTorrents(rtorrent.ViewMain)
	if err != nil {
		return err
	}
	for idx := range torrents {
		for idxhash := range hashes {
			if torrents[idx].Hash == hashes[idxhash] {
				if err := cl.Delete(torrents[idx]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
