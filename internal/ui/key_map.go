package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for a management screen.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	next   key.Binding
	prev   key.Binding
	search key.Binding
	sort   key.Binding
	order  key.Binding
	genre  key.Binding
	toggle key.Binding
	reload key.Binding
	accept key.Binding
	back   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		prev:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		sort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort field")),
		order:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort order")),
		genre:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		toggle: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle status")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		accept: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.sort, k.order, k.next, k.prev, k.toggle, k.reload, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.prev},
		{k.search, k.sort, k.order, k.genre},
		{k.toggle, k.reload, k.quit},
	}
}
