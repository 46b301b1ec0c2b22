package models

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// AutoApprove answers yes to every question (--yes).
type AutoApprove struct{}

func (AutoApprove) Confirm(string) (bool, error) { return true, nil }

// TerminalPrompter asks through a huh confirm form. Without a terminal on
// In it answers no, so unattended runs never extract silently.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) Confirm(question string) (bool, error) {
	f, ok := p.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, nil
	}

	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Extract").
				Negative("Quit").
				Value(&confirmed),
		),
	).WithInput(p.In).WithOutput(p.Out).Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
