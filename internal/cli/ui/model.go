package ui

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tleonardi/pycoQC/internal/cli/hooks"
	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

const listHeightMargin = 4

// Model represents the state of the TUI application: a spinner, the list of
// discovered files and the running counts of the current run.
type Model struct {
	list    list.Model
	spinner spinner.Model
	width   int
	height  int
	// initialized tracks if the model has received initial dimensions.
	initialized bool
	// root is the input directory; list entries are shown relative to it.
	root    string
	version string
	// fileItems and itemMap are guarded by listLock.
	fileItems []listItem
	itemMap   map[string]int
	listLock  sync.Mutex
	summary   Summary
	// phaseMessage displays the current overall stage (Scanning, Extracting, Complete).
	phaseMessage string
	// fatalError is set when the run ended without draining.
	fatalError    string
	quitting      bool
	debounceTimer *time.Timer
}

// listItem is one discovered container file.
type listItem struct {
	path  string
	index int
}

// Summary holds the counts displayed in the TUI footer.
type Summary struct {
	Discovered     int
	Records        int
	ValidFiles     int
	InvalidFiles   int
	ReadsPerSecond float64
	Elapsed        time.Duration
	StartTime      time.Time
	Done           bool
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles terminal events and the messages sent by the CLI hooks.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting || m.summary.Done {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	case hooks.FileDiscoveredMsg:
		m.listLock.Lock()
		if _, exists := m.itemMap[msg.Path]; !exists {
			m.summary.Discovered++
			m.fileItems = append(m.fileItems, listItem{path: m.relative(msg.Path), index: m.summary.Discovered})
			m.itemMap[msg.Path] = len(m.fileItems) - 1
			cmds = append(cmds, m.debounceListUpdate())
		}
		m.listLock.Unlock()
		if m.phaseMessage == "Initializing..." {
			m.phaseMessage = "Scanning..."
		}

	case hooks.ProgressMsg:
		m.summary.Records = msg.Records
		m.summary.Elapsed = msg.Elapsed
		if secs := msg.Elapsed.Seconds(); secs > 0 {
			m.summary.ReadsPerSecond = float64(msg.Records) / secs
		}
		if !m.summary.Done && msg.Records > 0 {
			m.phaseMessage = "Extracting..."
		}

	case hooks.RunCompleteMsg:
		s := msg.Report.Summary
		m.summary.Done = true
		m.summary.Records = s.RecordCount
		m.summary.ValidFiles = s.ValidFiles
		m.summary.InvalidFiles = s.InvalidFiles
		m.summary.ReadsPerSecond = s.ReadsPerSecond
		m.summary.Elapsed = time.Duration(s.DurationSeconds * float64(time.Second))
		if s.State == seqsummary.StateDrained {
			m.phaseMessage = "Complete"
		} else {
			m.phaseMessage = "Aborted"
			m.fatalError = fmt.Sprintf("Run ended in state %q, no summary written.", s.State)
		}

	case UpdateListMsg:
		m.listLock.Lock()
		items := make([]list.Item, len(m.fileItems))
		for i, item := range m.fileItems {
			items[i] = item
		}
		m.listLock.Unlock()
		cmds = append(cmds, m.list.SetItems(items))
	}

	return m, tea.Batch(cmds...)
}

// View renders the current state of the model.
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return "Initializing..."
	}

	headerLeft := fmt.Sprintf("fast5-to-seq-summary %s", m.version)
	headerRight := m.phaseMessage
	if !m.summary.Done && m.phaseMessage != "Initializing..." {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	headerCenter := ""
	if w := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight); w > 0 {
		headerCenter = lipgloss.PlaceHorizontal(w, lipgloss.Center, " ")
	}
	header := HeaderStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, headerLeft, headerCenter, headerRight))

	elapsed := m.summary.Elapsed
	if !m.summary.Done && !m.summary.StartTime.IsZero() {
		elapsed = time.Since(m.summary.StartTime)
	}
	footerLeft := fmt.Sprintf("Discovered: %d | Records: %d | %.1f reads/s | Elapsed: %s",
		m.summary.Discovered, m.summary.Records, m.summary.ReadsPerSecond, elapsed.Round(time.Millisecond))
	if m.summary.Done {
		footerLeft += fmt.Sprintf(" | Valid: %d | Invalid: %d", m.summary.ValidFiles, m.summary.InvalidFiles)
	}
	footerCenter := ""
	if w := m.width - lipgloss.Width(footerLeft); w > 0 {
		footerCenter = lipgloss.PlaceHorizontal(w, lipgloss.Center, " ")
	}
	footer := FooterStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, footerLeft, footerCenter))

	errorView := ""
	if m.fatalError != "" {
		errorView = StatusStyleFailed.Render(m.fatalError) + "\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.list.View(),
		errorView,
		footer,
	)
}

// NewModel creates the initial model for the TUI. root is the input directory.
func NewModel(version, root string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSpinner)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = false
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(ColorNormalFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return &Model{
		list:         l,
		spinner:      s,
		root:         root,
		version:      version,
		summary:      Summary{StartTime: time.Now()},
		phaseMessage: "Initializing...",
		fileItems:    make([]listItem, 0, 1000),
		itemMap:      make(map[string]int),
	}
}

func (m *Model) relative(path string) string {
	if m.root == "" {
		return path
	}
	if rel, err := filepath.Rel(m.root, path); err == nil {
		return rel
	}
	return path
}

// FilterValue implements the list.Item interface.
func (i listItem) FilterValue() string { return i.path }

// Title implements the list.DefaultItem interface.
func (i listItem) Title() string {
	return StatusStylePending.Render(fmt.Sprintf("%6d", i.index)) + " " + i.path
}

// Description implements the list.DefaultItem interface.
func (i listItem) Description() string { return "" }

// UpdateListMsg signals that the list component should update its items.
type UpdateListMsg struct{}

const listUpdateDebounceDuration = 50 * time.Millisecond

// debounceListUpdate sends UpdateListMsg after a short delay, restarting the delay
// on every call. MUST be called with listLock held.
func (m *Model) debounceListUpdate() tea.Cmd {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	timer := time.NewTimer(listUpdateDebounceDuration)
	m.debounceTimer = timer
	return func() tea.Msg {
		<-timer.C
		return UpdateListMsg{}
	}
}

const (
	ColorHeaderFg = lipgloss.Color("252")
	ColorHeaderBg = lipgloss.Color("24")

	ColorFooterFg = lipgloss.Color("252")
	ColorFooterBg = lipgloss.Color("23")

	ColorNormalFg   = lipgloss.Color("250")
	ColorSelectedFg = lipgloss.Color("255")
	ColorSelectedBg = lipgloss.Color("23")

	ColorSpinner       = lipgloss.Color("37")
	ColorStatusFailed  = lipgloss.Color("196")
	ColorStatusPending = lipgloss.Color("244")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeaderFg).
			Background(ColorHeaderBg).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorFooterFg).
			Background(ColorFooterBg).
			Padding(0, 1)

	StatusStyleFailed  = lipgloss.NewStyle().Foreground(ColorStatusFailed)
	StatusStylePending = lipgloss.NewStyle().Foreground(ColorStatusPending)
)
