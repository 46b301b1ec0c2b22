package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/gostt-scribe/internal/export"
	"github.com/chaz8081/gostt-scribe/internal/session"
	"github.com/chaz8081/gostt-scribe/internal/worker"
)

type stubRecognizer struct {
	texts   map[string]string
	started chan string   // receives each path as it begins, if set
	gate    chan struct{} // blocks every call until closed, if set
}

func (r *stubRecognizer) Transcribe(_ context.Context, path string) (string, error) {
	if r.started != nil {
		r.started <- path
	}
	if r.gate != nil {
		<-r.gate
	}
	if text, ok := r.texts[path]; ok {
		return text, nil
	}
	return "", errors.New("unreadable media")
}

type stubClipboard struct{ got string }

func (c *stubClipboard) Copy(text string) error {
	c.got = text
	return nil
}

func newTestModel(rec *stubRecognizer, paths ...string) Model {
	sess := session.New()
	sess.SetSelection(paths)
	return New(Deps{
		Worker:          worker.New(rec, nil, zerolog.Nop()),
		Session:         sess,
		Exporter:        export.New(nil, zerolog.Nop()),
		Extensions:      []string{".mp3", ".wav"},
		SaveSuffix:      "_transcript.txt",
		ShutdownTimeout: time.Second,
		Log:             zerolog.Nop(),
	})
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update must return a tui.Model")
	return nm, cmd
}

// drain feeds worker messages back into the model until the batch ends.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		m, cmd = update(t, m, msg)
		if _, done := msg.(batchDoneMsg); done {
			break
		}
	}
	return m
}

func TestStartWithoutSelection(t *testing.T) {
	m := newTestModel(&stubRecognizer{})

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	assert.Nil(t, cmd)
	assert.False(t, m.running)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "select files first")
}

func TestBatchAppendsEntriesInOrder(t *testing.T) {
	rec := &stubRecognizer{texts: map[string]string{"/m/a.mp3": "first", "/m/c.mp3": "third"}}
	m := newTestModel(rec, "/m/a.mp3", "/m/b.mp3", "/m/c.mp3")

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	require.NotNil(t, cmd)
	assert.True(t, m.running)
	assert.False(t, m.startEnabled(), "start is disabled while running")

	m = drain(t, m, cmd)

	assert.False(t, m.running)
	assert.Equal(t, worker.Progress{Completed: 3, Total: 3}, m.progress)

	text := m.editor.Value()
	a := strings.Index(text, "[1/3] /m/a.mp3")
	b := strings.Index(text, "[2/3] /m/b.mp3")
	c := strings.Index(text, "[3/3] /m/c.mp3")
	require.True(t, a >= 0 && b > a && c > b, "entries out of order:\n%s", text)
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "transcription failed: unreadable media")
	assert.Contains(t, text, "third")

	assert.Equal(t, text, m.deps.Session.Text())
	assert.True(t, m.deps.Session.Dirty())
	assert.Contains(t, m.status, "1 of 3 file(s) failed")
}

func TestOperatorEditsSurviveAppends(t *testing.T) {
	rec := &stubRecognizer{texts: map[string]string{"a.wav": "alpha", "b.wav": "beta"}}
	m := newTestModel(rec, "a.wav", "b.wav")

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	m, cmd = update(t, m, cmd())
	require.Contains(t, m.editor.Value(), "alpha")

	m.editor.SetValue(strings.Replace(m.editor.Value(), "alpha", "ALPHA (checked)", 1))

	m = drain(t, m, cmd)
	text := m.editor.Value()
	assert.Contains(t, text, "ALPHA (checked)")
	assert.NotContains(t, text, "alpha\n")
	assert.Less(t, strings.Index(text, "ALPHA"), strings.Index(text, "beta"))
}

func TestSecondStartRejectedWhileRunning(t *testing.T) {
	rec := &stubRecognizer{
		texts: map[string]string{"a.wav": "alpha"},
		gate:  make(chan struct{}),
	}
	m := newTestModel(rec, "a.wav")

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	require.True(t, m.running)

	m, again := update(t, m, key(tea.KeyCtrlR))
	assert.Nil(t, again)
	assert.Contains(t, m.status, "already running")

	close(rec.gate)
	m = drain(t, m, cmd)
	assert.False(t, m.running)
	assert.Equal(t, 1, strings.Count(m.editor.Value(), "[1/1] a.wav"))
}

func TestCancelStopsAfterCurrentFile(t *testing.T) {
	rec := &stubRecognizer{
		texts:   map[string]string{"a.wav": "alpha", "b.wav": "beta", "c.wav": "gamma"},
		started: make(chan string, 3),
		gate:    make(chan struct{}),
	}
	m := newTestModel(rec, "a.wav", "b.wav", "c.wav")

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	assert.Equal(t, "a.wav", <-rec.started)

	m, _ = update(t, m, key(tea.KeyCtrlX))
	close(rec.gate)
	m = drain(t, m, cmd)

	text := m.editor.Value()
	assert.Contains(t, text, "alpha", "the file in flight completes")
	assert.NotContains(t, text, "beta")
	assert.NotContains(t, text, "gamma")
	assert.Equal(t, worker.Progress{Completed: 1, Total: 3}, m.progress)
	assert.Contains(t, m.status, "cancelled after 1 of 3")
	assert.False(t, m.running)
}

func TestSelectExpandsInput(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.mp3", "a.wav", "skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}
	m := newTestModel(&stubRecognizer{})

	m, _ = update(t, m, key(tea.KeyCtrlO))
	require.Equal(t, modeSelect, m.mode)

	m.input.SetValue(filepath.Join(dir, "*"))
	m, _ = update(t, m, key(tea.KeyEnter))

	assert.Equal(t, modeEdit, m.mode)
	assert.Equal(t, []string{filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.mp3")}, m.deps.Session.Selection())
	assert.Contains(t, m.status, "2 file(s) selected")
	assert.True(t, m.startEnabled())
}

func TestSelectNothingKeepsPreviousSelection(t *testing.T) {
	m := newTestModel(&stubRecognizer{}, "/keep.mp3")

	m, _ = update(t, m, key(tea.KeyCtrlO))
	m.input.SetValue(filepath.Join(t.TempDir(), "*.mp3"))
	m, _ = update(t, m, key(tea.KeyEnter))

	assert.Equal(t, []string{"/keep.mp3"}, m.deps.Session.Selection())
	assert.True(t, m.statusErr)
}

func TestSelectEscCancels(t *testing.T) {
	m := newTestModel(&stubRecognizer{}, "/keep.mp3")

	m, _ = update(t, m, key(tea.KeyCtrlO))
	m, _ = update(t, m, key(tea.KeyEsc))

	assert.Equal(t, modeEdit, m.mode)
	assert.Equal(t, []string{"/keep.mp3"}, m.deps.Session.Selection())
}

func TestSaveWritesBufferAndClearsDirty(t *testing.T) {
	rec := &stubRecognizer{texts: map[string]string{"/m/talk.mp3": "hello world"}}
	m := newTestModel(rec, "/m/talk.mp3")

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	m = drain(t, m, cmd)
	require.True(t, m.deps.Session.Dirty())

	m, _ = update(t, m, key(tea.KeyCtrlS))
	require.Equal(t, modeSave, m.mode)
	assert.Equal(t, "talk_transcript.txt", m.input.Value())

	out := filepath.Join(t.TempDir(), "talk.txt")
	m.input.SetValue(out)
	m, cmd = update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[1/1] /m/talk.mp3\nhello world", string(data))
	assert.False(t, m.deps.Session.Dirty())
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "saved "+out)
}

func TestSaveEmptyBufferReportsNothingToSave(t *testing.T) {
	m := newTestModel(&stubRecognizer{})

	m, cmd := update(t, m, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.Equal(t, modeEdit, m.mode, "no filename prompt for an empty buffer")

	msg := cmd()
	done, ok := msg.(saveDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, &export.SaveError{Kind: export.NothingToSave})

	m, _ = update(t, m, msg)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "nothing to save")
}

func TestSaveFailureKeepsBuffer(t *testing.T) {
	m := newTestModel(&stubRecognizer{})
	m.editor.SetValue("keep me")

	m, _ = update(t, m, key(tea.KeyCtrlS))
	m.input.SetValue(filepath.Join(t.TempDir(), "missing", "dir", "out.txt"))
	m, cmd := update(t, m, key(tea.KeyEnter))
	m, _ = update(t, m, cmd())

	assert.True(t, m.statusErr)
	assert.Equal(t, "keep me", m.editor.Value())
	assert.True(t, m.deps.Session.Dirty())
}

func TestCopyToClipboard(t *testing.T) {
	m := newTestModel(&stubRecognizer{})
	clip := &stubClipboard{}
	m.deps.Clipboard = clip

	m, _ = update(t, m, key(tea.KeyCtrlY))
	assert.True(t, m.statusErr, "empty buffer is not copied")
	assert.Empty(t, clip.got)

	m.editor.SetValue("copy me")
	m, _ = update(t, m, key(tea.KeyCtrlY))
	assert.Equal(t, "copy me", clip.got)
	assert.False(t, m.statusErr)
}

func TestQuitCleanExitsImmediately(t *testing.T) {
	m := newTestModel(&stubRecognizer{})

	_, cmd := update(t, m, key(tea.KeyCtrlQ))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestQuitDirtyAsksForConfirmation(t *testing.T) {
	m := newTestModel(&stubRecognizer{}, "/m/a.mp3")
	m.editor.SetValue("unsaved work")

	m, cmd := update(t, m, key(tea.KeyCtrlQ))
	assert.Nil(t, cmd)
	assert.Equal(t, modeConfirmQuit, m.mode)
	assert.Contains(t, m.View(), "Quit anyway?")

	m, cmd = update(t, m, runeKey('n'))
	assert.Nil(t, cmd)
	assert.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "unsaved work", m.deps.Session.Text())

	m, _ = update(t, m, key(tea.KeyCtrlC))
	require.Equal(t, modeConfirmQuit, m.mode)
	m, cmd = update(t, m, runeKey('y'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.deps.Session.Text(), "session is cleared on exit")
	assert.Empty(t, m.deps.Session.Selection())
}

func TestQuitWhileRunningCancelsAndWaits(t *testing.T) {
	rec := &stubRecognizer{
		texts:   map[string]string{"a.wav": "alpha", "b.wav": "beta"},
		started: make(chan string, 2),
		gate:    make(chan struct{}),
	}
	m := newTestModel(rec, "a.wav", "b.wav")

	m, _ = update(t, m, key(tea.KeyCtrlR))
	<-rec.started
	time.AfterFunc(20*time.Millisecond, func() { close(rec.gate) })

	m, _ = update(t, m, key(tea.KeyCtrlQ)) // clean buffer, no confirmation
	assert.False(t, m.deps.Worker.Running(), "shutdown waits for the file in flight")
	assert.ErrorIs(t, m.deps.Worker.Err(), context.Canceled)
}

func TestViewShowsControlsAndProgress(t *testing.T) {
	m := newTestModel(&stubRecognizer{})

	v := m.View()
	assert.Contains(t, v, "gostt-scribe")
	assert.Contains(t, v, "no files selected")
	assert.Contains(t, v, "0/0")
	assert.Contains(t, v, "ctrl+r")

	m.deps.Session.SetSelection([]string{"x.mp3", "y.mp3"})
	v = m.View()
	assert.Contains(t, v, "2 files selected")
	assert.Contains(t, v, "1. x.mp3")
	assert.Contains(t, v, "2. y.mp3")
}

func TestViewListsSelectedFiles(t *testing.T) {
	dir := t.TempDir()
	var names []string
	for i := 0; i < maxListedFiles+2; i++ {
		name := fmt.Sprintf("part%02d.mp3", i)
		names = append(names, name)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	m := newTestModel(&stubRecognizer{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	before := m.editor.Height()

	m, _ = update(t, m, key(tea.KeyCtrlO))
	m.input.SetValue(filepath.Join(dir, "*.mp3"))
	m, _ = update(t, m, key(tea.KeyEnter))

	v := m.View()
	for i := 0; i < maxListedFiles; i++ {
		assert.Contains(t, v, filepath.Join(dir, names[i]), "glob matches are shown before running")
	}
	assert.NotContains(t, v, names[maxListedFiles])
	assert.Contains(t, v, "… and 2 more")
	assert.Equal(t, before-(maxListedFiles+1), m.editor.Height(), "the editor shrinks to fit the list")
}
