package ui

import (
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/azhao1981/gitui/internal/appstate"
	"github.com/azhao1981/gitui/internal/gitrepo"
	"github.com/azhao1981/gitui/internal/uiconfig"
	"github.com/azhao1981/gitui/internal/watch"
)

// Terminal owns the tcell screen and the single event loop that
// multiplexes keyboard input against the watcher's Changes/Lost channels,
// generalizing the teacher's Terminal (which only multiplexed keyboard
// input against a refresh ticker) to also react to filesystem events.
type Terminal struct {
	screen  tcell.Screen
	state   *appstate.State
	watcher *watch.Watcher
	logger  *slog.Logger

	flashLifetime time.Duration
	width, height int
	eventCh       chan tcell.Event
	running       bool
}

// NewTerminal initializes the tcell screen for an already-constructed
// application state and watcher. cfg.FlashLifetime governs how long a
// FlashMessage stays visible before the idle tick clears it, per spec's
// "auto-expires after 2.0-3.0s"; a zero value falls back to
// uiconfig.Default().
func NewTerminal(state *appstate.State, watcher *watch.Watcher, logger *slog.Logger, cfg uiconfig.Config) (*Terminal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FlashLifetime <= 0 {
		cfg.FlashLifetime = uiconfig.Default().FlashLifetime
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()
	screen.HideCursor()

	width, height := screen.Size()

	return &Terminal{
		screen:        screen,
		state:         state,
		watcher:       watcher,
		logger:        logger,
		flashLifetime: cfg.FlashLifetime,
		width:         width,
		height:        height,
		eventCh:       make(chan tcell.Event, 16),
	}, nil
}

// Close tears the terminal back down. Deferred by the caller so a panic
// unwinding through Run still restores the real screen, per spec's
// "panics on any path must restore the terminal before propagation".
func (t *Terminal) Close() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// Run drives the event loop until the user quits or the state sets Quit.
// If the watcher reports the repository lost, Run returns
// gitrepo.ErrNotARepository.
func (t *Terminal) Run() error {
	t.running = true
	defer func() { t.running = false }()

	t.redraw()
	go t.pollScreenEvents()

	idleTick := time.NewTicker(500 * time.Millisecond)
	defer idleTick.Stop()

	for t.running {
		select {
		case ev := <-t.eventCh:
			t.handleScreenEvent(ev)
		case <-t.watcher.Changes:
			if err := t.state.Refresh(); err != nil {
				t.logger.Warn("refresh on filesystem change failed", "error", err)
			}
			t.redraw()
		case <-t.watcher.Lost:
			return gitrepo.ErrNotARepository
		case <-idleTick.C:
			t.expireFlash()
		}

		if t.state.Quit {
			t.running = false
		}
	}

	return nil
}

func (t *Terminal) pollScreenEvents() {
	for t.running {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		t.eventCh <- ev
	}
}

func (t *Terminal) handleScreenEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.state.HandleKey(ev, nowNanos(), t.redraw)
		t.redraw()
	case *tcell.EventResize:
		t.width, t.height = ev.Size()
		t.screen.Sync()
		t.redraw()
	}
}

func (t *Terminal) expireFlash() {
	if t.state.Flash == nil {
		return
	}
	if nowNanos()-t.state.Flash.FirstShownAt >= int64(t.flashLifetime) {
		t.state.ClearFlash()
		t.redraw()
	}
}

func (t *Terminal) redraw() {
	Render(t.screen, t.state, t.width, t.height)
	t.screen.Show()
}

func nowNanos() int64 {
	return time.Now().UnixNano()
}
