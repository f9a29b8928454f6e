package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	quit      key.Binding
	help      key.Binding
	nextPanel key.Binding
	prevPanel key.Binding
	refresh   key.Binding

	toggle     key.Binding
	stop       key.Binding
	next       key.Binding
	prev       key.Binding
	shuffle    key.Binding
	repeat     key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	seekBack   key.Binding
	seekFwd    key.Binding

	up     key.Binding
	down   key.Binding
	enter  key.Binding
	add    key.Binding
	back   key.Binding
	fwd    key.Binding
	parent key.Binding
	gotoP  key.Binding
	remove key.Binding
	clear  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		nextPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		prevPanel: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous panel")),
		refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),

		toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		stop:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat mode")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		seekBack:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "seek -5s")),
		seekFwd:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "seek +5s")),

		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/play")),
		add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		back:   key.NewBinding(key.WithKeys("backspace", "h"), key.WithHelp("h", "back")),
		fwd:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "forward")),
		parent: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "parent folder")),
		gotoP:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to path")),
		remove: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear playlist")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit, k.help, k.toggle, k.next, k.prev, k.nextPanel}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.quit, k.help, k.nextPanel, k.prevPanel, k.refresh},
		{k.toggle, k.stop, k.next, k.prev, k.shuffle, k.repeat, k.volumeUp, k.volumeDown, k.seekBack, k.seekFwd},
		{k.up, k.down, k.enter, k.add, k.back, k.fwd, k.parent, k.gotoP},
		{k.remove, k.clear},
	}
}
