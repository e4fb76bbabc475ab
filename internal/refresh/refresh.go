// Package refresh drives timed full-catalog reloads. One background worker
// polls on a tick; a reload fires when the repeat interval elapses, when the
// wall clock enters the configured hour, or when one was requested explicitly.
// Requests arriving between ticks coalesce into a single reload.
package refresh

import (
	"log"
	"sync"
	"time"

	"github.com/snapetech/iptvcatalog/internal/config"
)

// Refresher owns the reload timer loop. The same mutex that serializes
// reloads is exposed through Exclusive so catchup resolution never observes a
// half-rebuilt catalog.
type Refresher struct {
	cfg    *config.Config
	reload func() bool

	mu        sync.Mutex
	requested bool

	stop chan struct{}
	done chan struct{}
}

// New wires a refresher to the reload function it will invoke.
func New(cfg *config.Config, reload func() bool) *Refresher {
	return &Refresher{
		cfg:    cfg,
		reload: reload,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// RequestReload asks for a reload on the next tick. Multiple requests before
// the tick coalesce.
func (r *Refresher) RequestReload() {
	r.mu.Lock()
	r.requested = true
	r.mu.Unlock()
}

// Exclusive runs fn while no reload can be in progress.
func (r *Refresher) Exclusive(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Start launches the timer loop.
func (r *Refresher) Start() {
	go r.run()
}

// Stop ends the loop and waits for any tick in progress, including its
// reload, to finish. There is no cancellation of a running parse.
func (r *Refresher) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Refresher) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	var sinceRefresh time.Duration
	lastHour := time.Now().Hour()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}

		now := time.Now()
		sinceRefresh += r.cfg.TickInterval

		r.mu.Lock()
		doReload := r.requested
		r.requested = false

		switch r.cfg.RefreshMode {
		case config.RefreshRepeated:
			if sinceRefresh >= time.Duration(r.cfg.RefreshIntervalMins)*time.Minute {
				doReload = true
			}
		case config.RefreshOncePerDay:
			// Fires once when the clock enters the refresh hour.
			if now.Hour() == r.cfg.RefreshHour && now.Hour() != lastHour {
				doReload = true
			}
		}
		lastHour = now.Hour()

		if doReload {
			sinceRefresh = 0
			if !r.reload() {
				log.Printf("refresh: reload failed, keeping previous catalog")
			}
		}
		r.mu.Unlock()
	}
}
