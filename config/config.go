// koanf_api
package config

import (
	"errors"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
)

var Configfile = "config.toml"

type MainConfig struct {
	General      GeneralConfig      `koanf:"general"`
	Server       ServerConfig       `koanf:"server"`
	Sonarr       ArrConfig          `koanf:"sonarr"`
	Radarr       ArrConfig          `koanf:"radarr"`
	Rtorrent     RtorrentConfig     `koanf:"rtorrent"`
	Notification NotificationConfig `koanf:"notification"`
}

type GeneralConfig struct {
	LogLevel            string `koanf:"loglevel"`
	LogFileSize         int    `koanf:"logfilesize"`
	LogFileCount        int    `koanf:"logfilecount"`
	LogCompress         bool   `koanf:"logcompress"`
	WorkerDefault       int    `koanf:"workerdefault"`
	MoveIntervalSec     int    `koanf:"moveintervalseconds"`
	BulkMoveIntervalSec int    `koanf:"bulkmoveintervalseconds"`
	RefreshCron         string `koanf:"refreshcron"`
	EnableFileWatcher   bool   `koanf:"enablefilewatcher"`
	PrefsFile           string `koanf:"prefsfile"`
}

type ServerConfig struct {
	URL            string `koanf:"url"`
	ApiKey         string `koanf:"apikey"`
	LimiterSeconds int    `koanf:"limiterseconds"`
	LimiterCalls   int    `koanf:"limitercalls"`
	TimeoutSeconds int    `koanf:"timeoutseconds"`
}

type ArrConfig struct {
	URL            string `koanf:"url"`
	ApiKey         string `koanf:"apikey"`
	LimiterSeconds int    `koanf:"limiterseconds"`
	LimiterCalls   int    `koanf:"limitercalls"`
}

type RtorrentConfig struct {
	Hostname string `koanf:"hostname"`
	Insecure bool   `koanf:"insecure"`
}

type NotificationConfig struct {
	PushoverApiKey    string `koanf:"pushoverapikey"`
	PushoverRecipient string `koanf:"pushoverrecipient"`
	NotifyOnBulkMove  bool   `koanf:"notifyonbulkmove"`
}

var Cfg MainConfig

// LoadCfg reads the toml config into Cfg and returns the file provider
// so the caller can attach a watcher when enabled.
func LoadCfg(path string) (*file.File, error) {
	k := koanf.New(".")
	f := file.Provider(path)
	if err := k.Load(f, toml.Parser()); err != nil {
		return nil, err
	}
	var cfg MainConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.URL == "" {
		return nil, errors.New("server url is not configured")
	}
	applyDefaults(&cfg)
	Cfg = cfg
	return f, nil
}

// ReloadCfg re-reads the config after a watcher event.
func ReloadCfg(f *file.File) error {
	k := koanf.New(".")
	if err := k.Load(f, toml.Parser()); err != nil {
		return err
	}
	var cfg MainConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return err
	}
	applyDefaults(&cfg)
	Cfg = cfg
	return nil
}

func applyDefaults(cfg *MainConfig) {
	if cfg.General.WorkerDefault == 0 {
		cfg.General.WorkerDefault = 1
	}
	if cfg.General.MoveIntervalSec == 0 {
		cfg.General.MoveIntervalSec = 2
	}
	if cfg.General.BulkMoveIntervalSec == 0 {
		cfg.General.BulkMoveIntervalSec = 5
	}
	if cfg.General.PrefsFile == "" {
		cfg.General.PrefsFile = "prefs.db"
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 10
	}
	if cfg.General.LogFileSize == 0 {
		cfg.General.LogFileSize = 5
	}
	if cfg.General.LogFileCount == 0 {
		cfg.General.LogFileCount = 1
	}
}
