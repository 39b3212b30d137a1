package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"

	"github.com/kosalvireak/chatroom/pkg/protocol"
)

// Sender is what the input line submits to. *client.Client satisfies it.
type Sender interface {
	Send(text string) error
}

// ChatUI is a two-view terminal UI: messages on top, input at the bottom.
type ChatUI struct {
	gui       *gocui.Gui
	list      *List
	sender    Sender
	title     string
	msgView   string
	inputView string
}

// New creates the UI. The terminal is taken over until Close.
func New(sender Sender, list *List, title string) (*ChatUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	ui := newChatUI(sender, list, title)
	ui.gui = g
	g.Cursor = true
	g.SetManagerFunc(ui.layout)
	list.OnChange(ui.refresh)
	return ui, nil
}

func newChatUI(sender Sender, list *List, title string) *ChatUI {
	return &ChatUI{
		list:      list,
		sender:    sender,
		title:     title,
		msgView:   "messages",
		inputView: "input",
	}
}

func (ui *ChatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, maxY-4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = ui.title
		v.Wrap = true
		v.Autoscroll = true
		ui.render(v)
	}

	if v, err := g.SetView(ui.inputView, 0, maxY-3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = fmt.Sprintf("Message (type %s to leave)", protocol.QuitSentinel)
		v.Editable = true
		v.Wrap = true

		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	return nil
}

func (ui *ChatUI) render(v *gocui.View) {
	v.Clear()
	for _, line := range ui.list.Lines() {
		fmt.Fprintln(v, line)
	}
}

func (ui *ChatUI) refresh() {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.msgView)
		if err != nil {
			return nil
		}
		ui.render(v)
		return nil
	})
}

func (ui *ChatUI) keybindings() error {
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone,
		func(_ *gocui.Gui, _ *gocui.View) error {
			return ui.submit(protocol.QuitSentinel)
		}); err != nil {
		return err
	}

	return ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone, ui.handleInput)
}

func (ui *ChatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	input := strings.TrimRight(v.Buffer(), "\n")
	v.Clear()
	v.SetCursor(0, 0)
	v.SetOrigin(0, 0)
	return ui.submit(input)
}

// submit hands one line to the sender. Failures are shown in the list; the
// client shuts itself down on fatal ones and Run notices through done.
func (ui *ChatUI) submit(input string) error {
	if err := ui.sender.Send(input); err != nil {
		if errors.Is(err, protocol.ErrNonASCII) {
			ui.list.Notice("Only ASCII text can be sent.")
			return nil
		}
		ui.list.Notice(fmt.Sprintf("Failed to send: %v", err))
	}
	return nil
}

// Run drives the UI until done is closed.
func (ui *ChatUI) Run(done <-chan struct{}) error {
	if err := ui.keybindings(); err != nil {
		return err
	}

	go func() {
		<-done
		ui.gui.Update(func(*gocui.Gui) error {
			return gocui.ErrQuit
		})
	}()

	if err := ui.gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

// Close restores the terminal.
func (ui *ChatUI) Close() {
	ui.list.OnChange(nil)
	ui.gui.Close()
}
