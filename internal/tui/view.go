package tui

import (
	"fmt"
	"strings"
)

// View renders the window.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("gostt-scribe"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.selectionSummary()))
	b.WriteString("\n")
	for _, line := range m.selectionList() {
		b.WriteString(mutedStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(m.bar.ViewAs(m.progress.Fraction()))
	b.WriteString(fmt.Sprintf(" %d/%d\n", m.progress.Completed, m.progress.Total))

	switch m.mode {
	case modeSelect:
		b.WriteString(promptStyle.Render("Files: " + m.input.View()))
	case modeSave:
		b.WriteString(promptStyle.Render("Save as: " + m.input.View()))
	case modeConfirmQuit:
		b.WriteString(promptStyle.Render(errStyle.Render("Unsaved transcript will be lost. Quit anyway? (y/n)")))
	default:
		b.WriteString(m.editor.View())
	}
	b.WriteString("\n")

	if m.statusErr {
		b.WriteString(errStyle.Render(m.status))
	} else {
		b.WriteString(okStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) selectionSummary() string {
	sel := m.deps.Session.Selection()
	switch len(sel) {
	case 0:
		return "no files selected"
	case 1:
		return "1 file selected:"
	default:
		return fmt.Sprintf("%d files selected:", len(sel))
	}
}

// maxListedFiles caps the selection list shown above the transcript.
const maxListedFiles = 6

// selectionList returns one line per selected file, in run order.
func (m Model) selectionList() []string {
	sel := m.deps.Session.Selection()
	lines := make([]string, 0, min(len(sel), maxListedFiles+1))
	for i, p := range sel {
		if i == maxListedFiles {
			lines = append(lines, fmt.Sprintf("  … and %d more", len(sel)-maxListedFiles))
			break
		}
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, p))
	}
	return lines
}

// helpLine lists the controls; unavailable ones are struck through.
func (m Model) helpLine() string {
	type control struct {
		key, label string
		enabled    bool
	}
	controls := []control{
		{"ctrl+o", "select", true},
		{"ctrl+r", "start", m.startEnabled()},
		{"ctrl+s", "save", m.saveEnabled()},
		{"ctrl+y", "copy", m.saveEnabled() && m.deps.Clipboard != nil},
		{"ctrl+x", "cancel", m.running},
		{"ctrl+q", "quit", true},
	}

	parts := make([]string, 0, len(controls))
	for _, c := range controls {
		if c.enabled {
			parts = append(parts, keyStyle.Render(c.key)+" "+mutedStyle.Render(c.label))
		} else {
			parts = append(parts, offKeyStyle.Render(c.key+" "+c.label))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" • "))
}

// startEnabled reports whether ctrl+r would start a batch.
func (m Model) startEnabled() bool {
	return !m.running && len(m.deps.Session.Selection()) > 0
}

// saveEnabled reports whether the buffer holds anything to save.
func (m Model) saveEnabled() bool {
	return strings.TrimSpace(m.editor.Value()) != ""
}
