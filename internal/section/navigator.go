// Package section tracks which dashboard section is visible.
package section

import (
	"errors"
	"fmt"
	"log/slog"
)

type ID string

const (
	Overview ID = "overview"
	Charts   ID = "charts"
	Table    ID = "table"
	Settings ID = "settings"
)

// All lists the sections in menu order.
var All = []ID{Overview, Charts, Table, Settings}

var ErrUnknownSection = errors.New("unknown section")

func Parse(s string) (ID, error) {
	for _, id := range All {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
}

func (id ID) Title() string {
	switch id {
	case Overview:
		return "Panoramica"
	case Charts:
		return "Grafici"
	case Table:
		return "Tabella"
	case Settings:
		return "Impostazioni"
	}
	return string(id)
}

type Navigator struct {
	active ID
	enter  map[ID]func()
	log    *slog.Logger
}

func NewNavigator(logger *slog.Logger) *Navigator {
	return &Navigator{active: Overview, enter: map[ID]func(){}, log: logger}
}

// OnEnter registers fn to run each time id becomes active, including when
// it is shown again while already active.
func (n *Navigator) OnEnter(id ID, fn func()) {
	n.enter[id] = fn
}

func (n *Navigator) Active() ID { return n.active }

func (n *Navigator) IsActive(id ID) bool { return n.active == id }

func (n *Navigator) Show(name string) error {
	id, err := Parse(name)
	if err != nil {
		n.log.Error("section not found", "section", name)
		return err
	}
	n.active = id
	n.log.Debug("section shown", "section", id)
	if fn := n.enter[id]; fn != nil {
		fn()
	}
	return nil
}
