package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/tessro/spindle/internal/engine"
	"github.com/tessro/spindle/internal/library"
	"github.com/tessro/spindle/internal/logging"
	"github.com/tessro/spindle/internal/metadata"
	"github.com/tessro/spindle/internal/server"
	"github.com/tessro/spindle/internal/session"
	"github.com/tessro/spindle/internal/settings"
)

// localPlayer is a session running in this process along with the
// resources it owns.
type localPlayer struct {
	*session.Session

	engine  *engine.Engine
	store   *settings.Store
	watcher *library.Watcher
}

// startPlayer opens the state store and audio device and starts a session
// on them. Close releases everything once ctx is done.
func startPlayer(ctx context.Context) (*localPlayer, error) {
	store, err := settings.Open(cfg.State.Path)
	if err != nil {
		return nil, err
	}

	p := &localPlayer{
		engine: engine.New(engine.Options{Logger: logging.Component(logger, "engine")}),
		store:  store,
	}

	deps := session.Deps{
		Engine:    p.engine,
		Extractor: metadata.NewExtractor(logging.Component(logger, "metadata")),
		Settings:  store,
		Lister:    library.NewLister(cfg.Library.ShowHidden),
		Logger:    logger,
	}
	if cfg.Library.Watch {
		// The callback runs on the watcher goroutine, after Session is set.
		p.watcher, err = library.NewWatcher(func(dir string) {
			p.DirectoryChanged(dir)
		}, logging.Component(logger, "watcher"))
		if err != nil {
			logger.Warn("directory watching disabled", "err", err)
		} else {
			deps.Watcher = p.watcher
		}
	}

	p.Session = session.New(deps, session.Options{
		Root:        cfg.Library.Root,
		Volume:      cfg.Playback.Volume,
		Shuffle:     cfg.Playback.Shuffle,
		Repeat:      cfg.Playback.RepeatMode(),
		HistorySize: cfg.History.MaxEntries,
		Workers:     cfg.Library.Workers,
		CheckDirs:   true,
	})

	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session stopped", "err", err)
		}
	}()
	return p, nil
}

// Close waits for the session to stop and releases its resources.
func (p *localPlayer) Close() error {
	<-p.Done()
	var errs []error
	if p.watcher != nil {
		errs = append(errs, p.watcher.Close())
	}
	errs = append(errs, p.engine.Close(), p.store.Close())
	return errors.Join(errs...)
}

// newServer builds the HTTP API for p from the server config.
func newServer(p *localPlayer) *server.Server {
	return server.New(p, server.Options{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		CORSOrigins:  cfg.Server.CORSOrigins,
		PositionRate: cfg.Server.PositionRate,
		Version:      Version,
		Logger:       logging.Component(logger, "server"),
	})
}

// serveAddr is the address printed for users to point clients at.
func serveAddr(srv *server.Server) string {
	return fmt.Sprintf("http://%s", srv.Addr())
}
