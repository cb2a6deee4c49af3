package ui

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SummaryView ViewState = iota
	FileListView
)

// Model is the bubbletea model behind [ListConfirmer].
type Model struct {
	view      ViewState
	files     []string
	width     int
	height    int
	fileList  list.Model
	loaded    bool
	confirmed bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a confirmation model for files, which are shown sorted.
func NewModel(files []string) *Model {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	fl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fl.Title = fmt.Sprintf("%d files to upload", len(sorted))
	fl.SetShowHelp(false)

	return &Model{
		view:     SummaryView,
		files:    sorted,
		fileList: fl,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Confirmed reports whether the operator chose to upload.
func (m *Model) Confirmed() bool {
	return m.confirmed
}

// Init loads file descriptions in the background.
func (m *Model) Init() tea.Cmd {
	files := m.files
	return func() tea.Msg {
		return itemsLoadedMsg(loadItems(files))
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fileList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case Msg:
		if msg.kind == MsgItemsLoaded {
			loaded, _ := msg.data.([]fileItem)
			items := make([]list.Item, len(loaded))
			for i, it := range loaded {
				items[i] = it
			}
			m.loaded = true
			return m, m.fileList.SetItems(items)
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == FileListView && m.fileList.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.quit):
			m.confirmed = false
			return m, tea.Quit
		case key.Matches(msg, m.keys.upload):
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.list):
			if m.view == SummaryView {
				m.view = FileListView
			} else {
				m.view = SummaryView
			}
			return m, nil
		case key.Matches(msg, m.keys.back) && m.view == FileListView && m.fileList.FilterState() == list.Unfiltered:
			m.view = SummaryView
			return m, nil
		}
	}

	if m.view == FileListView {
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case FileListView:
		return fmt.Sprintf("%s\n\n%s", m.fileList.View(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.upload, m.keys.quit}))
	default:
		title := styles.title.Render(fmt.Sprintf("Found %d files.", len(m.files)))
		status := ""
		if !m.loaded && len(m.files) > 0 {
			status = styles.help.Render("Reading tags...") + "\n\n"
		}
		return fmt.Sprintf("%s\n%s%s", title, status, m.help.ShortHelpView(m.keys.ShortHelp()))
	}
}

// ListConfirmer asks for confirmation with a full-screen list of the candidates.
type ListConfirmer struct {
	in   io.Reader
	out  io.Writer
	opts []tea.ProgramOption
}

// NewListConfirmer creates a [ListConfirmer]. Nil in and out use the terminal.
func NewListConfirmer(in io.Reader, out io.Writer, opts ...tea.ProgramOption) *ListConfirmer {
	return &ListConfirmer{in: in, out: out, opts: opts}
}

// Confirm runs the TUI until the operator uploads or aborts.
func (l *ListConfirmer) Confirm(ctx context.Context, files []string) (bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if l.in != nil {
		opts = append(opts, tea.WithInput(l.in))
	}
	if l.out != nil {
		opts = append(opts, tea.WithOutput(l.out))
	}
	opts = append(opts, l.opts...)

	final, err := tea.NewProgram(NewModel(files), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}

	m, ok := final.(*Model)
	return ok && m.Confirmed(), nil
}
