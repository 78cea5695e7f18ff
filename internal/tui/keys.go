package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	Home, End             key.Binding
	Edit, Done, Cancel    key.Binding
	Open, Dismiss, Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←/h", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "right")),
		Home:    key.NewBinding(key.WithKeys("home", "0")),
		End:     key.NewBinding(key.WithKeys("end", "$")),
		Edit:    key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Done:    key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter", "done")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave")),
		Open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// normalHelp is shown while moving around the table.
func (k keyMap) normalHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Edit, k.Open, k.Dismiss, k.Quit}
}

// editHelp is shown while a cell or the file prompt has focus.
func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Done, k.Cancel}
}
