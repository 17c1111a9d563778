package tui

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"driftp/pkg/browse"
	"driftp/pkg/message"
	"driftp/pkg/progress"
	"driftp/pkg/storage"
	"driftp/pkg/transfer"
	"driftp/pkg/vfs"
)

// tickInterval drives progress redraws and registry pruning.
const tickInterval = 250 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#626262")).
				Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true)

	itemStyle         = lipgloss.NewStyle()
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))

	gaugeDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	gaugeRestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
)

// tickMsg drives the periodic redraw.
type tickMsg time.Time

// transferDoneMsg arrives from a worker goroutine when a top-level
// transfer finishes.
type transferDoneMsg struct {
	name string
	dest vfs.Namespace
	err  error
}

// Model is the dual-pane application model. Everything it renders comes
// from the navigation model, the progress registry, and the message
// queue; worker goroutines never touch the model directly.
type Model struct {
	local  vfs.FS
	remote vfs.FS

	nav      *browse.Model
	engine   *transfer.Engine
	registry *progress.Registry
	messages *message.Queue
	settings *storage.SettingsStore

	showHidden bool
	running    atomic.Int32
	events     chan tea.Msg

	creatingDir bool
	input       textinput.Model

	width  int
	height int
}

// New builds the application model over the two namespace backends.
// localDir and remoteDir are the starting directories.
func New(local, remote vfs.FS, localDir, remoteDir string, settings *storage.SettingsStore) (*Model, error) {
	showHidden := settings.Get().ShowHiddenFiles
	nav, err := browse.NewModel(local, remote, localDir, remoteDir, showHidden)
	if err != nil {
		return nil, err
	}

	registry := progress.NewRegistry()
	messages := message.NewQueue()

	ti := textinput.New()
	ti.Placeholder = "New Directory Name"
	ti.CharLimit = 156
	ti.Width = 40

	return &Model{
		local:      local,
		remote:     remote,
		nav:        nav,
		engine:     transfer.NewEngine(registry, messages),
		registry:   registry,
		messages:   messages,
		settings:   settings,
		showHidden: showHidden,
		events:     make(chan tea.Msg, 16),
		input:      ti,
	}, nil
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitEvent blocks on the worker event channel.
func (m *Model) waitEvent() tea.Msg {
	return <-m.events
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitEvent)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.registry.Prune()
		return m, tick()

	case transferDoneMsg:
		if msg.err != nil {
			log.Printf("[ERROR] Transfer of %s failed: %v", msg.name, msg.err)
			m.messages.Error(msg.err.Error())
		} else {
			m.messages.Report(fmt.Sprintf("transferred %s", msg.name))
		}
		// Only the receiving side's listing changed
		if msg.dest == vfs.Local {
			m.refreshLocal()
		} else {
			m.refreshRemote()
		}
		return m, m.waitEvent

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.creatingDir {
		switch msg.String() {
		case "enter":
			name := strings.TrimSpace(m.input.Value())
			m.creatingDir = false
			m.input.Blur()
			m.input.Reset()
			if name != "" {
				m.createDirectory(name)
			}
			return m, nil
		case "esc":
			m.creatingDir = false
			m.input.Blur()
			m.input.Reset()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		if m.running.Load() > 0 {
			m.messages.Warn("transfers in progress, press Q to force quit")
			return m, nil
		}
		return m, tea.Quit

	case "Q", "ctrl+c":
		// Workers keep running until the process exits
		return m, tea.Quit

	case "down", "j":
		m.nav.MoveCursor(1)

	case "up", "k":
		m.nav.MoveCursor(-1)

	case "tab", "h", "l", "left", "right":
		m.nav.TogglePane()

	case "enter":
		m.openSelected()

	case " ":
		m.startTransfer()

	case ".":
		m.showHidden = !m.showHidden
		if err := m.settings.SetShowHiddenFiles(m.showHidden); err != nil {
			log.Printf("[WARN] Failed to persist hidden-file setting: %v", err)
		}
		m.refreshLocal()
		m.refreshRemote()

	case "n":
		m.creatingDir = true
		m.input.Reset()
		m.input.Focus()
		return m, textinput.Blink

	case "r":
		m.refreshLocal()
		m.refreshRemote()
	}

	return m, nil
}

func (m *Model) refreshLocal() {
	if err := m.nav.RefreshLocal(m.showHidden); err != nil {
		log.Printf("[ERROR] Failed to refresh local listing: %v", err)
		m.messages.Error(err.Error())
	}
}

func (m *Model) refreshRemote() {
	if err := m.nav.RefreshRemote(m.showHidden); err != nil {
		log.Printf("[ERROR] Failed to refresh remote listing: %v", err)
		m.messages.Error(err.Error())
	}
}

// openSelected descends into the selected directory (or back up through
// the parent marker). Files are not openable.
func (m *Model) openSelected() {
	entry, ok := m.nav.SelectedEntry()
	if !ok || !entry.IsDir() {
		return
	}

	var err error
	if entry.Namespace == vfs.Local {
		err = m.nav.SetLocalDir(entry.Path, m.showHidden)
	} else {
		err = m.nav.SetRemoteDir(entry.Path, m.showHidden)
	}
	if err != nil {
		log.Printf("[ERROR] Failed to open %s: %v", entry.Path, err)
		m.messages.Error(err.Error())
	}
}

// startTransfer launches the selected entry toward the opposite pane's
// directory on its own goroutine. The result comes back as a
// transferDoneMsg.
func (m *Model) startTransfer() {
	entry, ok := m.nav.SelectedEntry()
	if !ok {
		return
	}

	var src, dst vfs.FS
	var destDir string
	if entry.Namespace == vfs.Local {
		src, dst = m.local, m.remote
		destDir = m.nav.RemoteDir()
	} else {
		src, dst = m.remote, m.local
		destDir = m.nav.LocalDir()
	}

	if entry.Kind == vfs.KindParent {
		err := &transfer.ParentError{Namespace: src.Namespace(), Path: entry.Path}
		m.messages.Error(err.Error())
		return
	}

	name := entry.Name()
	m.running.Add(1)
	go func() {
		err := m.engine.Transfer(src, dst, entry, destDir)
		m.running.Add(-1)
		m.events <- transferDoneMsg{name: name, dest: dst.Namespace(), err: err}
	}()
}

// createDirectory makes a directory in the active pane's namespace.
func (m *Model) createDirectory(name string) {
	var fsys vfs.FS
	var dir string
	switch m.nav.ActivePane() {
	case browse.PaneRemote:
		fsys, dir = m.remote, m.nav.RemoteDir()
	default:
		fsys, dir = m.local, m.nav.LocalDir()
	}

	target := fsys.Join(dir, name)
	if err := fsys.Mkdir(target); err != nil {
		log.Printf("[ERROR] Failed to create directory %s: %v", target, err)
		m.messages.Error(fmt.Sprintf("failed to create %s: %v", name, err))
		return
	}
	m.messages.Report(fmt.Sprintf("created %s", name))
	if fsys.Namespace() == vfs.Local {
		m.refreshLocal()
	} else {
		m.refreshRemote()
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("driftp"))
	b.WriteString("\n\n")

	progressLines := m.renderProgress()
	messageLines := m.messages.Lines()

	paneHeight := m.height - 6 - len(progressLines) - len(messageLines)
	if paneHeight < 10 {
		paneHeight = 10
	}
	paneWidth := (m.width - 8) / 2
	if paneWidth < 30 {
		paneWidth = 30
	}

	localIdx, localActive := m.nav.LocalIndex()
	remoteIdx, remoteActive := m.nav.RemoteIndex()

	localPane := renderPane("Local", m.nav.LocalDir(), m.nav.LocalEntries(), localIdx, localActive, paneWidth, paneHeight)
	remotePane := renderPane("Remote", m.nav.RemoteDir(), m.nav.RemoteEntries(), remoteIdx, remoteActive, paneWidth, paneHeight)

	if localActive {
		localPane = activeBorderStyle.Height(paneHeight).Render(localPane)
	} else {
		localPane = inactiveBorderStyle.Height(paneHeight).Render(localPane)
	}
	if remoteActive {
		remotePane = activeBorderStyle.Height(paneHeight).Render(remotePane)
	} else {
		remotePane = inactiveBorderStyle.Height(paneHeight).Render(remotePane)
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, localPane, "  ", remotePane))
	b.WriteString("\n")

	for _, line := range progressLines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	for _, msg := range messageLines {
		style := infoStyle
		switch msg.Severity {
		case message.Warning:
			style = warningStyle
		case message.Error:
			style = errorStyle
		}
		b.WriteString(style.Render(msg.Text))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab: switch • enter: open • space: transfer • n: mkdir • .: hidden • r: refresh • q: quit"))

	if m.creatingDir {
		popupStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2).
			Width(50)
		b.WriteString("\n\n")
		b.WriteString(popupStyle.Render(fmt.Sprintf("Create New Directory\n\n%s", m.input.View())))
	}

	return b.String()
}

// renderProgress formats one line per live meter, aggregates first.
func (m *Model) renderProgress() []string {
	snaps := m.registry.Snapshots()
	lines := make([]string, 0, len(snaps))
	for _, s := range snaps {
		if s.IsAggregate {
			lines = append(lines, infoStyle.Render(fmt.Sprintf("%s: %d files, %s sent", s.Title, s.FilesSent, formatBytes(s.BytesSent))))
			continue
		}
		eta := "--"
		if s.HasETA {
			eta = formatETA(s.ETA)
		}
		line := fmt.Sprintf("%s %s %s/%s %s ETA %s",
			s.Title,
			renderGauge(s.Ratio, 20),
			formatBytes(s.BytesSent),
			formatBytes(s.TotalBytes),
			formatBitrate(s.Bps),
			eta)
		lines = append(lines, line)
	}
	return lines
}

// renderGauge draws a fixed-width bar for a ratio in [0, 1].
func renderGauge(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	done := int(ratio * float64(width))
	return gaugeDoneStyle.Render(strings.Repeat("█", done)) +
		gaugeRestStyle.Render(strings.Repeat("░", width-done))
}

// renderPane draws one listing with its path header and cursor window.
func renderPane(title, dir string, entries []vfs.Entry, cursorIdx int, active bool, width, height int) string {
	var b strings.Builder

	paneTitle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	if title == "Remote" {
		paneTitle = paneTitle.Foreground(lipgloss.Color("#FFA500"))
	}
	b.WriteString(paneTitle.Render(title))
	b.WriteString("\n")

	truncated := dir
	if len(truncated) > width-4 {
		truncated = "..." + truncated[len(truncated)-(width-7):]
	}
	b.WriteString(pathStyle.Render(truncated))
	b.WriteString("\n\n")

	displayCount := height - 3
	if displayCount < 5 {
		displayCount = 5
	}

	startIdx := 0
	if active && cursorIdx > displayCount/2 && len(entries) > displayCount {
		startIdx = cursorIdx - displayCount/2
	}
	endIdx := startIdx + displayCount
	if endIdx > len(entries) {
		endIdx = len(entries)
	}

	for i := startIdx; i < endIdx; i++ {
		entry := entries[i]
		cursor := "  "
		style := itemStyle
		if active && cursorIdx == i {
			cursor = "→ "
			style = selectedItemStyle
		}

		label := entry.Label()
		if len(label) > width-10 {
			label = label[:width-13] + "..."
		}

		line := label
		if entry.IsFile() {
			line = fmt.Sprintf("%-*s %s", width-18, label, formatBytes(entry.Size))
		}
		b.WriteString(cursor + style.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

// Running reports whether any transfer goroutine is still active.
func (m *Model) Running() bool {
	return m.running.Load() > 0
}
