// Package tui is the interactive claim console: one key per club, a reset
// key, a scrolling log of notifications, and the current status label.
package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/transferwindow/internal/event"
)

// Options configures the console.
type Options struct {
	Title    string   // resource display name
	Actors   []string // clubs bound to keys 1-9
	Status   string   // initial status label
	MaxLines int
	// OnStart runs once the console is subscribed to notifications.
	OnStart func()
}

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
	onStart func()
}

// New creates a new TUI application fed by notification events on bus.
func New(bus *event.Bus, backend Backend, opts Options) *App {
	return &App{
		model:   NewModel(backend, opts),
		bus:     bus,
		onStart: opts.OnStart,
	}
}

// Run starts the TUI application and blocks until the user quits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	ids := []string{
		a.bus.Subscribe(event.TypeNotifyLine, func(e event.Event) {
			a.program.Send(LineMsg(e.(event.LineEvent).Line))
		}),
		a.bus.Subscribe(event.TypeNotifyStatus, func(e event.Event) {
			a.program.Send(StatusMsg(e.(event.StatusEvent).Text))
		}),
	}
	for _, t := range []string{event.TypeClaimDecided, event.TypeResetDecided, event.TypeClaimantDropped} {
		ids = append(ids, a.bus.Subscribe(t, func(e event.Event) {
			a.program.Send(DecisionMsg(decisionText(e)))
		}))
	}
	defer func() {
		for _, id := range ids {
			a.bus.Unsubscribe(id)
		}
	}()

	if a.onStart != nil {
		a.onStart()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigChan:
			a.program.Send(tea.Quit())
		case <-done:
		}
	}()

	_, err := a.program.Run()
	return err
}

// decisionText summarizes a decision event, e.g. "PSG won" or "reset applied".
func decisionText(e event.Event) string {
	switch e := e.(type) {
	case event.ClaimDecidedEvent:
		return e.Actor + " " + e.Outcome
	case event.ResetDecidedEvent:
		return "reset " + e.Outcome
	case event.ClaimantDroppedEvent:
		return e.Actor + " withdrawn"
	}
	return ""
}
