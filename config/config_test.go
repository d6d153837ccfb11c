package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/recoilme/pudge"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCfgDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
url = "http://localhost:8080"
apikey = "secret"
`)
	if _, err := LoadCfg(path); err != nil {
		t.Fatalf("LoadCfg() error = %v", err)
	}
	if Cfg.Server.URL != "http://localhost:8080" {
		t.Errorf("Server.URL = %q", Cfg.Server.URL)
	}
	if Cfg.General.MoveIntervalSec != 2 || Cfg.General.BulkMoveIntervalSec != 5 {
		t.Errorf("poll interval defaults = %d/%d, want 2/5",
			Cfg.General.MoveIntervalSec, Cfg.General.BulkMoveIntervalSec)
	}
	if Cfg.General.PrefsFile != "prefs.db" {
		t.Errorf("PrefsFile default = %q", Cfg.General.PrefsFile)
	}
	if Cfg.Server.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds default = %d", Cfg.Server.TimeoutSeconds)
	}
}

func TestLoadCfgFull(t *testing.T) {
	path := writeConfig(t, `
[general]
loglevel = "Debug"
moveintervalseconds = 1

[server]
url = "http://media.local"
apikey = "secret"

[sonarr]
url = "http://sonarr.local:8989"
apikey = "sk"

[rtorrent]
hostname = "http://rtorrent.local/RPC2"

[notification]
pushoverapikey = "pk"
pushoverrecipient = "rk"
notifyonbulkmove = true
`)
	if _, err := LoadCfg(path); err != nil {
		t.Fatalf("LoadCfg() error = %v", err)
	}
	if Cfg.General.MoveIntervalSec != 1 {
		t.Error("explicit interval overridden by default")
	}
	if Cfg.Sonarr.URL == "" || Cfg.Rtorrent.Hostname == "" {
		t.Error("optional sections not read")
	}
	if !Cfg.Notification.NotifyOnBulkMove {
		t.Error("notification flag not read")
	}
}

func TestLoadCfgRequiresServerURL(t *testing.T) {
	path := writeConfig(t, `
[general]
loglevel = "Info"
`)
	if _, err := LoadCfg(path); err == nil {
		t.Fatal("config without a server url must be rejected")
	}
}

func TestLastUserRoundTrip(t *testing.T) {
	db, err := OpenPrefs(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("OpenPrefs() error = %v", err)
	}
	PrefsDB = db
	defer func() {
		PrefsDB = nil
		pudge.CloseAll()
	}()

	if got := GetLastUser(); got != "" {
		t.Errorf("GetLastUser() on fresh db = %q, want empty", got)
	}
	if err := SetLastUser("u42"); err != nil {
		t.Fatalf("SetLastUser() error = %v", err)
	}
	if got := GetLastUser(); got != "u42" {
		t.Errorf("GetLastUser() = %q, want u42", got)
	}
}
