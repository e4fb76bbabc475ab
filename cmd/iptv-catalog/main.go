// Command iptv-catalog: playlist catalog service (run), or one-shot index / check.
//
//	run    Load the playlist catalog, keep it refreshed on a timer, and serve
//	       health, metrics and catchup URL resolution over HTTP. For systemd.
//	index  Fetch the playlist once, parse it and print catalog statistics.
//	check  Verify the configured playlist source is reachable and non-empty.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/snapetech/iptvcatalog/internal/catalog"
	"github.com/snapetech/iptvcatalog/internal/catchup"
	"github.com/snapetech/iptvcatalog/internal/config"
	"github.com/snapetech/iptvcatalog/internal/epg"
	"github.com/snapetech/iptvcatalog/internal/fetch"
	"github.com/snapetech/iptvcatalog/internal/health"
	"github.com/snapetech/iptvcatalog/internal/metrics"
	"github.com/snapetech/iptvcatalog/internal/playlist"
	"github.com/snapetech/iptvcatalog/internal/refresh"
)

// logNotifier logs the per-catalog changed signals a media host would
// otherwise consume.
type logNotifier struct{}

func (logNotifier) ChannelsChanged()      { log.Printf("catalog: channels changed") }
func (logNotifier) ChannelGroupsChanged() { log.Printf("catalog: channel groups changed") }
func (logNotifier) ProvidersChanged()     { log.Printf("catalog: providers changed") }
func (logNotifier) MediaChanged()         { log.Printf("catalog: media changed") }

// newCatalogs builds the four stores for one service instance.
func newCatalogs(cfg *config.Config) playlist.Catalogs {
	return playlist.Catalogs{
		Channels:  catalog.NewChannels(cfg.StartChannelNumber, cfg.OnlyChannelsWithGroups),
		Groups:    catalog.NewGroups(cfg.TVGroupFilter, cfg.TVGroupList, cfg.RadioGroupFilter, cfg.RadioGroupList),
		Providers: catalog.NewProviders(),
		Media:     catalog.NewMedia(),
	}
}

// openGuide returns the EPG source: the sqlite store when configured, an
// empty in-memory guide otherwise. close is nil for the in-memory guide.
func openGuide(cfg *config.Config) (epg.Source, func() error, error) {
	if cfg.EPGDBPath == "" {
		return epg.NewMemory(), nil, nil
	}
	store, err := epg.Open(cfg.EPGDBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Printf("main: cannot read .env: %v", err)
	}

	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)
	indexLocation := indexCmd.String("m3u", "", "playlist URL or file (overrides IPTV_CATALOG_M3U_LOCATION)")

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkLocation := checkCmd.String("m3u", "", "playlist URL or file (overrides IPTV_CATALOG_M3U_LOCATION)")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runListen := runCmd.String("listen", "", "listen address (overrides IPTV_CATALOG_LISTEN_ADDR)")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: iptv-catalog <run|index|check> [flags]")
		os.Exit(2)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "index":
		indexCmd.Parse(os.Args[2:])
		if *indexLocation != "" {
			cfg.M3ULocation = *indexLocation
		}
		loader := playlist.NewLoader(cfg, fetch.NewFetcher(cfg.CacheDir), nil, newCatalogs(cfg))
		stats, err := loader.Load()
		if err != nil {
			log.Fatalf("index: %v", err)
		}
		fmt.Printf("loaded %s\n", stats)
		if url := loader.EPGURL(); url != "" {
			fmt.Printf("playlist announces guide URL %s\n", url)
		}

	case "check":
		checkCmd.Parse(os.Args[2:])
		if *checkLocation != "" {
			cfg.M3ULocation = *checkLocation
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := health.CheckSource(ctx, cfg.M3ULocation); err != nil {
			log.Fatalf("check: %v", err)
		}
		fmt.Printf("playlist source OK: %s\n", cfg.M3ULocation)

	case "run":
		runCmd.Parse(os.Args[2:])
		if *runListen != "" {
			cfg.ListenAddr = *runListen
		}
		if err := run(cfg); err != nil {
			log.Fatalf("run: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func run(cfg *config.Config) error {
	cats := newCatalogs(cfg)

	guide, closeGuide, err := openGuide(cfg)
	if err != nil {
		return err
	}
	if closeGuide != nil {
		defer closeGuide()
	}

	loader := playlist.NewLoader(cfg, fetch.NewFetcher(cfg.CacheDir), logNotifier{}, cats)
	controller := catchup.NewController(cfg, guide, nil)

	reload := func() bool {
		started := time.Now()
		ok := loader.Reload()
		metrics.LoadDuration.Observe(time.Since(started).Seconds())
		if ok {
			metrics.LoadsTotal.WithLabelValues("ok").Inc()
		} else {
			metrics.LoadsTotal.WithLabelValues("failed").Inc()
		}
		metrics.ChannelsLoaded.Set(float64(cats.Channels.Amount()))
		metrics.GroupsLoaded.Set(float64(cats.Groups.Amount()))
		metrics.ProvidersLoaded.Set(float64(cats.Providers.Amount()))
		metrics.MediaLoaded.Set(float64(cats.Media.Amount()))
		return ok
	}

	refresher := refresh.New(cfg, reload)

	// First load happens inline; a failure is survivable since the refresh
	// loop retries on its schedule.
	if !reload() {
		log.Printf("main: initial playlist load failed, waiting for refresh")
	}
	refresher.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cats.Channels.LoadFailed() {
			http.Error(w, "last playlist load failed", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "ok: %d channels, %d groups, %d providers, %d media\n",
			cats.Channels.Amount(), cats.Groups.Amount(), cats.Providers.Amount(), cats.Media.Amount())
	})
	mux.HandleFunc("/resolve", resolveHandler(cats.Channels, controller, refresher))
	mux.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
		refresher.RequestReload()
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, "reload requested")
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("main: listening on %s", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		refresher.Stop()
		return err
	case sig := <-sigCh:
		log.Printf("main: received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("main: http shutdown: %v", err)
	}
	refresher.Stop()
	return nil
}

// resolveResponse is the /resolve reply. When playable is false the caller
// should fall back to the channel's plain stream URL.
type resolveResponse struct {
	Playable bool              `json:"playable"`
	URL      string            `json:"url,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
}

// resolveHandler answers catchup URL resolution requests:
//
//	GET /resolve?channel=<id>                       live playback
//	GET /resolve?channel=<id>&start=<unix>&end=<unix>  replay of one programme
//
// Resolution runs excluded from catalog reloads.
func resolveHandler(channels *catalog.Channels, controller *catchup.Controller, refresher *refresh.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.URL.Query().Get("channel"))
		if err != nil {
			http.Error(w, "bad channel id", http.StatusBadRequest)
			return
		}

		var resp resolveResponse
		refresher.Exclusive(func() {
			ch, ok := channels.Get(id)
			if !ok {
				return
			}
			controller.ResetState()
			startStr := r.URL.Query().Get("start")
			if startStr == "" {
				res := controller.ProcessChannelForPlayback(ch)
				resp = resolveResponse{Playable: res.Playable, URL: res.URL, Props: res.Props}
				return
			}
			startUnix, _ := strconv.ParseInt(startStr, 10, 64)
			endUnix, _ := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
			res := controller.ProcessEPGTagForPlayback(ch, time.Unix(startUnix, 0), time.Unix(endUnix, 0))
			resp = resolveResponse{Playable: res.Playable, URL: res.URL, Props: res.Props}
		})

		if resp.Playable {
			metrics.CatchupResolutionsTotal.WithLabelValues("playable").Inc()
		} else {
			metrics.CatchupResolutionsTotal.WithLabelValues("not_playable").Inc()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
