// Package tui is the interactive front end: an editable transcript panel with
// controls to select files, run a batch, save, and copy.
//
// Everything here runs on Bubble Tea's update goroutine. The worker reports
// through a channel that a tea.Cmd drains one Update at a time, so session
// and widget state are only ever touched from Update.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/chaz8081/gostt-scribe/internal/clipboard"
	"github.com/chaz8081/gostt-scribe/internal/export"
	"github.com/chaz8081/gostt-scribe/internal/session"
	"github.com/chaz8081/gostt-scribe/internal/worker"
)

type mode int

const (
	modeEdit mode = iota
	modeSelect
	modeSave
	modeConfirmQuit
)

// Deps are the collaborators the surface drives.
type Deps struct {
	Worker          *worker.Worker
	Session         *session.Session
	Exporter        *export.Exporter
	Clipboard       clipboard.Clipboard // optional
	Extensions      []string
	SaveSuffix      string
	ShutdownTimeout time.Duration
	Log             zerolog.Logger
}

type (
	updateMsg    worker.Update
	batchDoneMsg struct{ err error }
	saveDoneMsg  struct {
		text string // buffer snapshot that was saved
		res  export.Result
		err  error
	}
)

// Model is the Bubble Tea model for the transcription window.
type Model struct {
	deps Deps
	mode mode

	editor textarea.Model
	input  textinput.Model
	bar    progress.Model

	running  bool
	cancel   context.CancelFunc
	updates  <-chan worker.Update
	progress worker.Progress
	failed   int

	status    string
	statusErr bool

	height int
}

// New creates the model. deps.Session must be non-nil.
func New(deps Deps) Model {
	if deps.ShutdownTimeout == 0 {
		deps.ShutdownTimeout = 5 * time.Second
	}

	ed := textarea.New()
	ed.Placeholder = "Transcripts appear here. Press ctrl+o to choose files."
	ed.ShowLineNumbers = false
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.SetValue(deps.Session.Text())
	ed.Focus()

	in := textinput.New()
	in.CharLimit = 0

	return Model{
		deps:   deps,
		editor: ed,
		input:  in,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		status: "ctrl+o to select files",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.editor.SetWidth(msg.Width)
		m.bar.Width = max(msg.Width-24, 10)
		m.input.Width = max(msg.Width-16, 10)
		m.fitEditor()
		return m, nil

	case updateMsg:
		return m.applyUpdate(worker.Update(msg))

	case batchDoneMsg:
		return m.finishBatch(msg.err), nil

	case saveDoneMsg:
		return m.finishSave(msg), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSelect:
			return m.handleSelectKey(msg)
		case modeSave:
			return m.handleSaveKey(msg)
		case modeConfirmQuit:
			return m.handleConfirmKey(msg)
		default:
			return m.handleEditKey(msg)
		}
	}

	var cmd tea.Cmd
	if m.mode == modeSelect || m.mode == modeSave {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m.requestQuit()
	case "ctrl+o":
		return m.openInput(modeSelect, "", "paths or globs, e.g. ~/talks/*.mp3 \"my file.wav\"")
	case "ctrl+r":
		return m.startBatch()
	case "ctrl+s":
		m.syncEdits()
		if !m.canSave() {
			// The exporter rejects an empty buffer before any filesystem access.
			return m, m.saveCmd("", m.deps.Session.Text())
		}
		name := export.DefaultFilename(m.deps.Session.LastProcessed(), m.deps.SaveSuffix)
		return m.openInput(modeSave, name, "save as")
	case "ctrl+y":
		return m.copyToClipboard(), nil
	case "ctrl+x":
		if m.running && m.cancel != nil {
			m.cancel()
			m.setStatus("cancelling after the current file…", false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) openInput(md mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.syncEdits()
	m.mode = md
	m.editor.Blur()
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) closeInput() Model {
	m.mode = modeEdit
	m.input.Blur()
	m.editor.Focus()
	return m
}

func (m Model) handleSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m.closeInput(), nil
	case "enter":
		paths, err := session.ExpandSelection(m.input.Value(), m.deps.Extensions)
		m = m.closeInput()
		switch {
		case err != nil:
			m.setStatus(err.Error(), true)
		case len(paths) == 0:
			m.setStatus("no matching files selected", true)
		default:
			m.deps.Session.SetSelection(paths)
			m.fitEditor()
			m.setStatus(fmt.Sprintf("%d file(s) selected, ctrl+r to transcribe", len(paths)), false)
			m.deps.Log.Info().Strs("files", paths).Msg("selection changed")
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m.closeInput(), nil
	case "enter":
		path := expandHome(strings.TrimSpace(m.input.Value()))
		if path == "" {
			return m, nil
		}
		m = m.closeInput()
		m.setStatus("saving…", false)
		return m, m.saveCmd(path, m.deps.Session.Text())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		return m.shutdown()
	case "n", "esc":
		m.mode = modeEdit
		m.editor.Focus()
		m.setStatus("quit cancelled", false)
	}
	return m, nil
}

// startBatch runs the worker over a snapshot of the current selection.
func (m Model) startBatch() (tea.Model, tea.Cmd) {
	if m.running {
		m.setStatus("a transcription is already running", true)
		return m, nil
	}
	paths := m.deps.Session.Selection()
	if len(paths) == 0 {
		m.setStatus("select files first (ctrl+o)", true)
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := m.deps.Worker.Start(ctx, paths)
	if err != nil {
		cancel()
		m.setStatus(err.Error(), true)
		return m, nil
	}

	m.running = true
	m.cancel = cancel
	m.updates = updates
	m.progress = worker.Progress{Total: len(paths)}
	m.failed = 0
	m.setStatus(fmt.Sprintf("transcribing %s…", filepath.Base(paths[0])), false)
	return m, waitForUpdate(updates)
}

// waitForUpdate delivers the next worker update to Update as a message.
func waitForUpdate(ch <-chan worker.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return batchDoneMsg{}
		}
		return updateMsg(u)
	}
}

func (m Model) applyUpdate(u worker.Update) (tea.Model, tea.Cmd) {
	m.syncEdits()
	m.deps.Session.AppendEntry(u.Entry)
	m.editor.SetValue(m.deps.Session.Text())
	m.progress = u.Progress

	if u.Entry.Failed() {
		m.failed++
		m.setStatus(fmt.Sprintf("%s failed: %v", filepath.Base(u.Entry.Path), u.Entry.Err), true)
	} else if u.Progress.Completed < u.Progress.Total {
		m.setStatus(fmt.Sprintf("transcribed %d of %d", u.Progress.Completed, u.Progress.Total), false)
	}
	return m, waitForUpdate(m.updates)
}

func (m Model) finishBatch(err error) Model {
	if err == nil {
		err = m.deps.Worker.Err()
	}
	m.running = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.updates = nil

	switch {
	case errors.Is(err, context.Canceled):
		m.setStatus(fmt.Sprintf("cancelled after %d of %d file(s)", m.progress.Completed, m.progress.Total), true)
	case err != nil:
		m.setStatus(err.Error(), true)
	case m.failed > 0:
		m.setStatus(fmt.Sprintf("done: %d of %d file(s) failed", m.failed, m.progress.Total), true)
	default:
		m.setStatus(fmt.Sprintf("done: %d file(s) transcribed, ctrl+s to save", m.progress.Total), false)
	}
	return m
}

// saveCmd writes text off the update goroutine.
func (m Model) saveCmd(path, text string) tea.Cmd {
	x := m.deps.Exporter
	return func() tea.Msg {
		res, err := x.Save(context.Background(), path, text)
		return saveDoneMsg{text: text, res: res, err: err}
	}
}

func (m Model) finishSave(msg saveDoneMsg) Model {
	if msg.err != nil {
		m.setStatus(msg.err.Error(), true)
		return m
	}

	m.syncEdits()
	if m.deps.Session.Text() == msg.text {
		m.deps.Session.MarkSaved()
	}

	status := fmt.Sprintf("saved %s", msg.res.Path)
	if m.running {
		status += " (partial, transcription still running)"
	}
	if msg.res.OpenErr != nil {
		m.setStatus(status+"; "+msg.res.OpenErr.Error(), true)
		return m
	}
	m.setStatus(status, false)
	return m
}

func (m Model) copyToClipboard() Model {
	if m.deps.Clipboard == nil {
		m.setStatus("clipboard not available", true)
		return m
	}
	m.syncEdits()
	if !m.canSave() {
		m.setStatus("nothing to copy", true)
		return m
	}
	if err := m.deps.Clipboard.Copy(m.deps.Session.Text()); err != nil {
		m.setStatus(err.Error(), true)
		return m
	}
	m.setStatus("transcript copied to clipboard", false)
	return m
}

// requestQuit asks for confirmation when quitting would lose unsaved text.
func (m Model) requestQuit() (tea.Model, tea.Cmd) {
	m.syncEdits()
	if m.deps.Session.Dirty() {
		m.mode = modeConfirmQuit
		m.editor.Blur()
		return m, nil
	}
	return m.shutdown()
}

// shutdown cancels any batch, waits a bounded time for the current file, and
// clears the session.
func (m Model) shutdown() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.running && !m.deps.Worker.Wait(m.deps.ShutdownTimeout) {
		m.deps.Log.Warn().Dur("timeout", m.deps.ShutdownTimeout).Msg("exiting with a file still being transcribed")
	}
	m.deps.Session.Clear()
	return m, tea.Quit
}

// fitEditor gives the editor the rows left after the header, selection list,
// progress, status and help lines.
func (m *Model) fitEditor() {
	if m.height == 0 {
		return
	}
	m.editor.SetHeight(max(m.height-7-len(m.selectionList()), 3))
}

// syncEdits copies operator edits from the editor into the session.
func (m Model) syncEdits() {
	m.deps.Session.SetText(m.editor.Value())
}

func (m Model) canSave() bool {
	return strings.TrimSpace(m.deps.Session.Text()) != ""
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
