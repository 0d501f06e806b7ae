package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause    key.Binding
	SpeedUp      key.Binding
	SpeedDown    key.Binding
	PrevSentence key.Binding
	NextSentence key.Binding
	PrevChapter  key.Binding
	NextChapter  key.Binding
	ToggleView   key.Binding
	Narrate      key.Binding
	Chapters     key.Binding
	Up           key.Binding
	Down         key.Binding
	Select       key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		SpeedUp: key.NewBinding(
			key.WithKeys("+", "=", "up"),
			key.WithHelp("+/-", "speed"),
		),
		SpeedDown: key.NewBinding(
			key.WithKeys("-", "down"),
		),
		PrevSentence: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←/→", "sentence"),
		),
		NextSentence: key.NewBinding(
			key.WithKeys("right"),
		),
		PrevChapter: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[/]", "chapter"),
		),
		NextChapter: key.NewBinding(
			key.WithKeys("]"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "ticker/rsvp"),
		),
		Narrate: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "narration"),
		),
		Chapters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chapters"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
