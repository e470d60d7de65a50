package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// maxClubKeys is how many clubs can be bound to the digit keys 1-9.
const maxClubKeys = 9

type keyMap struct {
	Clubs []key.Binding
	Reset key.Binding
	Quit  key.Binding
}

func newKeyMap(actors []string) keyMap {
	km := keyMap{
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	for i, actor := range actors {
		if i >= maxClubKeys {
			break
		}
		k := fmt.Sprintf("%d", i+1)
		km.Clubs = append(km.Clubs, key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(k, actor),
		))
	}
	return km
}

func (k keyMap) all() []key.Binding {
	out := make([]key.Binding, 0, len(k.Clubs)+2)
	out = append(out, k.Clubs...)
	return append(out, k.Reset, k.Quit)
}
