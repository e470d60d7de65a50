package cmd

import (
	"io"
	"os"

	"github.com/Iron-Ham/transferwindow/internal/event"
	"github.com/Iron-Ham/transferwindow/internal/notify"
	"github.com/Iron-Ham/transferwindow/internal/tui/styles"
	"golang.org/x/term"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// decoratorFor colors notification lines when w is a terminal and leaves
// them plain otherwise.
func decoratorFor(w io.Writer) notify.Decorator {
	if !isTerminal(w) {
		return nil
	}
	return func(e event.Event, text string) string {
		if se, ok := e.(event.StatusEvent); ok {
			return "Status: " + styles.RenderStatus(se.Text)
		}
		return styles.RenderLine(text)
	}
}

// paint applies render only on a terminal.
func paint(w io.Writer, render func(string) string, text string) string {
	if !isTerminal(w) {
		return text
	}
	return render(text)
}
