package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/Iron-Ham/transferwindow/internal/event"
)

// Decorator renders an event's text for output. A nil Decorator prints
// the text unchanged.
type Decorator func(e event.Event, text string) string

// PrintTo subscribes to line and status events on bus and writes each as
// one line to w. Status updates are written as "Status: <text>". It
// returns a function that removes the subscriptions.
func PrintTo(bus *event.Bus, w io.Writer, decorate Decorator) func() {
	var mu sync.Mutex
	write := func(e event.Event, text string) {
		if decorate != nil {
			text = decorate(e, text)
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(w, text)
	}

	lineID := bus.Subscribe(event.TypeNotifyLine, func(e event.Event) {
		write(e, e.(event.LineEvent).Line)
	})
	statusID := bus.Subscribe(event.TypeNotifyStatus, func(e event.Event) {
		write(e, "Status: "+e.(event.StatusEvent).Text)
	})

	return func() {
		bus.Unsubscribe(lineID)
		bus.Unsubscribe(statusID)
	}
}
