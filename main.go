package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/recoilme/pudge"
	"github.com/urfave/cli/v2"

	"github.com/mediastage/stagehand/apiexternal"
	"github.com/mediastage/stagehand/config"
	"github.com/mediastage/stagehand/controller"
	"github.com/mediastage/stagehand/dispatch"
	"github.com/mediastage/stagehand/logger"
	"github.com/mediastage/stagehand/mapper"
	"github.com/mediastage/stagehand/queue"
	"github.com/mediastage/stagehand/stager"
	"github.com/mediastage/stagehand/tasks"
	"github.com/mediastage/stagehand/view"
)

var ctrl *controller.Controller

func setup(c *cli.Context) error {
	cfgfile := c.String("config")
	f, err := config.LoadCfg(cfgfile)
	if err != nil {
		return err
	}
	cfg := &config.Cfg

	logger.InitLogger(logger.LoggerConfig{
		LogLevel:     cfg.General.LogLevel,
		LogFileSize:  cfg.General.LogFileSize,
		LogFileCount: cfg.General.LogFileCount,
		LogCompress:  cfg.General.LogCompress,
	})
	logger.Log.Infoln("Starting stagehand")

	if cfg.General.EnableFileWatcher {
		f.Watch(func(event interface{}, err error) {
			if err != nil {
				log.Printf("watch error: %v", err)
				return
			}
			log.Println("cfg reloaded")
			time.Sleep(time.Duration(2) * time.Second)
			config.ReloadCfg(f)
		})
	}

	pudb, errdb := config.OpenPrefs(cfg.General.PrefsFile)
	if errdb != nil {
		logger.Log.Warning("preference store unavailable: ", errdb)
	} else {
		config.PrefsDB = pudb
	}

	apiexternal.NewServerClient(cfg.Server.URL, cfg.Server.ApiKey, cfg.Server.LimiterSeconds, cfg.Server.LimiterCalls, cfg.Server.TimeoutSeconds)
	if cfg.Sonarr.URL != "" {
		apiexternal.NewSonarrClient(cfg.Sonarr.URL, cfg.Sonarr.ApiKey, cfg.Sonarr.LimiterSeconds, cfg.Sonarr.LimiterCalls)
	}
	if cfg.Radarr.URL != "" {
		apiexternal.NewRadarrClient(cfg.Radarr.URL, cfg.Radarr.ApiKey, cfg.Radarr.LimiterSeconds, cfg.Radarr.LimiterCalls)
	}
	if cfg.Notification.PushoverApiKey != "" {
		apiexternal.NewPushOverClient(cfg.Notification.PushoverApiKey)
	}

	state := &view.State{LastUser: config.GetLastUser()}
	st := stager.NewStager(apiexternal.ServerApi, state,
		time.Duration(cfg.General.MoveIntervalSec)*time.Second,
		time.Duration(cfg.General.BulkMoveIntervalSec)*time.Second)
	if cfg.Notification.PushoverApiKey != "" && cfg.Notification.NotifyOnBulkMove {
		st.Notify = func(message string, title string) {
			if err := apiexternal.PushoverApi.SendMessage(message, title, cfg.Notification.PushoverRecipient); err != nil {
				logger.Log.Error("pushover failed: ", err)
			}
		}
	}

	var sonarr mapper.SeriesLookup
	var radarr mapper.MovieLookup
	if cfg.Sonarr.URL != "" {
		sonarr = apiexternal.SonarrApi
	}
	if cfg.Radarr.URL != "" {
		radarr = apiexternal.RadarrApi
	}
	mp := mapper.NewMapper(apiexternal.ServerApi, sonarr, radarr)
	qm := queue.NewManager(apiexternal.ServerApi, cfg.Rtorrent.Hostname, cfg.Rtorrent.Insecure)

	ctrl = controller.New(apiexternal.ServerApi, st, mp, qm, state)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "stagehand",
		Usage: "drive the media management server from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.Configfile, Usage: "config file"},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:  "move",
				Usage: "move one staged media item and wait for the task",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "type", Required: true, Usage: "movie or series"},
					&cli.StringFlag{Name: "dest", Required: true},
				},
				Action: func(c *cli.Context) error {
					err := ctrl.Disp.Trigger(dispatch.Action{
						Name:        "move",
						MediaID:     c.String("id"),
						MediaType:   c.String("type"),
						Destination: c.String("dest"),
					})
					if err != nil {
						return err
					}
					fmt.Println(ctrl.LastMessage)
					return nil
				},
			},
			{
				Name:  "bulkmove",
				Usage: "move several staged items in one server task",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dest", Required: true},
					&cli.StringFlag{Name: "type"},
					&cli.StringSliceFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					if err := refreshTable(c.String("type")); err != nil {
						return err
					}
					err := ctrl.Disp.Trigger(dispatch.Action{
						Name:        "bulkmove",
						Destination: c.String("dest"),
						IDs:         c.StringSlice("id"),
					})
					if err != nil {
						return err
					}
					fmt.Println(ctrl.LastMessage)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "show the staging table",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type"},
					&cli.StringFlag{Name: "filter"},
					&cli.StringFlag{Name: "sort", Value: "title"},
				},
				Action: func(c *cli.Context) error {
					err := ctrl.Disp.Trigger(dispatch.Action{
						Name:      "apply_filter",
						Query:     c.String("filter"),
						MediaType: c.String("type"),
					})
					if err != nil {
						return err
					}
					ctrl.State.Table.SortBy(c.String("sort"))
					for _, row := range ctrl.State.Table.Rows() {
						fmt.Printf("%s\t%s\t%s\t(%d)\t%s\n", row.ID, row.MediaType, row.Title, row.Year, row.Path)
					}
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "delete staged files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					err := ctrl.Disp.Trigger(dispatch.Action{Name: "bulk_delete", IDs: c.StringSlice("id")})
					if err != nil {
						return err
					}
					fmt.Println(ctrl.LastMessage)
					return nil
				},
			},
			{
				Name:  "toggle",
				Usage: "flip watched or monitored state",
				Subcommands: []*cli.Command{
					{
						Name: "watched",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "ratingkey", Required: true},
							&cli.StringFlag{Name: "user"},
						},
						Action: func(c *cli.Context) error {
							if c.String("user") != "" {
								ctrl.SelectUser(c.String("user"))
							}
							return ctrl.Disp.Trigger(dispatch.Action{
								Name:      "toggle_watched",
								RatingKey: c.String("ratingkey"),
								UserID:    c.String("user"),
							})
						},
					},
					{
						Name: "monitored",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "type", Required: true, Usage: "series, season or episode"},
							&cli.StringFlag{Name: "id", Required: true},
							&cli.BoolFlag{Name: "on"},
							&cli.StringSliceFlag{Name: "child", Usage: "descendant as type:id, toggled along"},
						},
						Action: func(c *cli.Context) error {
							return ctrl.Disp.Trigger(dispatch.Action{
								Name:      "toggle_monitored",
								MediaType: c.String("type"),
								TargetID:  c.String("id"),
								Flag:      c.Bool("on"),
								IDs:       c.StringSlice("child"),
							})
						},
					},
				},
			},
			{
				Name:  "search",
				Usage: "clean a release name and look up library candidates",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "type", Required: true},
				},
				Action: func(c *cli.Context) error {
					query, cands, err := ctrl.Mapper.Candidates(c.String("name"), c.String("type"))
					if err != nil {
						return err
					}
					fmt.Println("query:", query)
					for _, cand := range cands {
						fmt.Printf("%s (%d)\timdb:%s tvdb:%d tmdb:%d\n", cand.Title, cand.Year, cand.ImdbID, cand.TvdbID, cand.TmdbID)
					}
					return nil
				},
			},
			{
				Name:  "describe",
				Usage: "show details for one lookup candidate",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					info, err := ctrl.Mapper.Describe(c.String("id"))
					if err != nil {
						return err
					}
					fmt.Printf("%s (%d) [%s]\n%s\n", info.Title, info.Year, info.Status, info.Overview)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "add a missing series or movie to sonarr/radarr",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Required: true, Usage: "movie or series"},
					&cli.IntFlag{Name: "id", Required: true, Usage: "tvdb or tmdb id"},
					&cli.StringFlag{Name: "root", Required: true},
					&cli.IntFlag{Name: "quality", Value: 1},
				},
				Action: func(c *cli.Context) error {
					title, err := ctrl.Mapper.Add(c.String("type"), c.Int("id"), c.String("root"), c.Int("quality"))
					if err != nil {
						return err
					}
					fmt.Println("added", title)
					return nil
				},
			},
			{
				Name:  "map",
				Usage: "map a staged file to a library item",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true},
					&cli.StringFlag{Name: "type", Required: true},
					&cli.StringFlag{Name: "target", Required: true},
				},
				Action: func(c *cli.Context) error {
					if err := refreshTable(c.String("type")); err != nil {
						return err
					}
					return ctrl.Disp.Trigger(dispatch.Action{
						Name:      "map",
						MediaID:   c.String("file"),
						MediaType: c.String("type"),
						TargetID:  c.String("target"),
					})
				},
			},
			{
				Name:  "queue",
				Usage: "manage the rtorrent queue",
				Subcommands: []*cli.Command{
					{
						Name: "list",
						Action: func(c *cli.Context) error {
							items, err := ctrl.Queue.List()
							if err != nil {
								return err
							}
							for _, item := range items {
								state := "downloading"
								if item.Completed {
									state = "done"
								}
								fmt.Printf("%s\t%s\t%s\t%.2f\n", item.Hash, state, item.Name, item.Ratio)
							}
							return nil
						},
					},
					{
						Name: "batch",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "action", Required: true, Usage: "start, stop or remove"},
							&cli.StringSliceFlag{Name: "hash", Required: true},
						},
						Action: func(c *cli.Context) error {
							err := ctrl.Disp.Trigger(dispatch.Action{
								Name: "queue_batch",
								Op:   c.String("action"),
								IDs:  c.StringSlice("hash"),
							})
							if err != nil {
								return err
							}
							fmt.Println(ctrl.LastMessage)
							return nil
						},
					},
				},
			},
			{
				Name:  "users",
				Usage: "list plex users, optionally store the default",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "select"},
				},
				Action: func(c *cli.Context) error {
					if c.String("select") != "" {
						ctrl.SelectUser(c.String("select"))
					}
					users, err := ctrl.Users()
					if err != nil {
						return err
					}
					for _, user := range users {
						marker := " "
						if user.ID == ctrl.State.LastUser {
							marker = "*"
						}
						fmt.Printf("%s %s\t%s\n", marker, user.ID, user.Name)
					}
					return nil
				},
			},
			{
				Name:   "watch",
				Usage:  "keep the staging table fresh until interrupted",
				Action: runWatch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pudge.CloseAll()
}

func refreshTable(mediatype string) error {
	return ctrl.Disp.Trigger(dispatch.Action{Name: "apply_filter", MediaType: mediatype})
}

func runWatch(c *cli.Context) error {
	cfg := &config.Cfg
	dispatcher := tasks.NewDispatcher("refresh", cfg.General.WorkerDefault, 100)
	dispatcher.Start()

	refresh := func() {
		if err := ctrl.Stager.Refresh(); err != nil {
			logger.Log.Warning("refresh failed: ", err)
			return
		}
		logger.Log.Info("staging rows: ", ctrl.State.Table.Len(), " selected: ", ctrl.State.Selection.Count())
	}

	if strings.TrimSpace(cfg.General.RefreshCron) != "" {
		if _, err := dispatcher.DispatchCron("refresh_staging", refresh, cfg.General.RefreshCron); err != nil {
			return err
		}
	} else {
		if _, err := dispatcher.DispatchEvery("refresh_staging", refresh, 60*time.Second); err != nil {
			return err
		}
	}
	dispatcher.Dispatch("refresh_staging", refresh)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("receive interrupt signal")

	dispatcher.Stop()
	ctrl.Stager.Stop()
	if err := pudge.CloseAll(); err != nil {
		log.Println("preference store shutdown:", err)
	}
	log.Println("stagehand exiting")
	return nil
}
