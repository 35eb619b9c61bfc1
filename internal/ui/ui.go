package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TransferView ViewState = iota
	ResultView
)

// recentLines is how many finished tracks the transfer view keeps on screen.
const recentLines = 6

// Model represents the TUI application state for one transfer.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	engine  tasks.Transferer
	request models.TransferRequest

	view     ViewState
	width    int
	height   int
	spinner  spinner.Model
	bar      progress.Model
	outcomes list.Model
	help     help.Model
	keys     keyMap

	progressChan <-chan tasks.ProgressUpdate
	doneChan     <-chan transferResult
	progress     tasks.ProgressUpdate
	recent       []string
	report       *models.TransferReport
	err          error
	runs         int
}

// NewModel creates a new TUI model that runs req on engine when started.
func NewModel(ctx context.Context, engine tasks.Transferer, req models.TransferRequest) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:      ctx,
		engine:   engine,
		request:  req,
		view:     TransferView,
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		outcomes: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Report returns the report of the last finished run, which may be partial when Err is set.
func (m *Model) Report() *models.TransferReport { return m.report }

// Err returns the error of the last finished run.
func (m *Model) Err() error { return m.err }

// Init starts the spinner and the transfer.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startTransfer())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		m.help.Width = msg.Width
		m.outcomes.SetSize(msg.Width-4, max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != TransferView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgTransferComplete:
			res := msg.data.(transferResult)
			m.finish(res.report, res.err)
			return m, nil
		}
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.outcomes, cmd = m.outcomes.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.view == ResultView && m.outcomes.FilterState() == list.Filtering && msg.String() == "q" {
			break
		}
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case m.view == TransferView && key.Matches(msg, m.keys.cancel):
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case m.view == TransferView && key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case m.view == ResultView && key.Matches(msg, m.keys.restart) && m.outcomes.FilterState() != list.Filtering:
		return m, tea.Batch(m.spinner.Tick, m.startTransfer())
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.outcomes, cmd = m.outcomes.Update(msg)
		return m, cmd
	}
	return m, nil
}

// startTransfer runs the engine in a goroutine. Updates arrive through [Model.waitForProgress]; the result is
// delivered once the progress channel is closed.
func (m *Model) startTransfer() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	progressChan := make(chan tasks.ProgressUpdate, 64)
	doneChan := make(chan transferResult, 1)

	m.cancel = cancel
	m.progressChan = progressChan
	m.doneChan = doneChan
	m.view = TransferView
	m.progress = tasks.ProgressUpdate{}
	m.recent = nil
	m.report = nil
	m.err = nil
	m.runs++

	go func() {
		defer cancel()
		report, err := m.engine.Run(ctx, m.request, progressChan)
		doneChan <- transferResult{report: report, err: err}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			res := <-doneChan
			return transferCompleteMsg(res.report, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.progress = update
	if o, ok := update.Data.(models.TrackOutcome); ok {
		line := fmt.Sprintf("%s %s", outcomeMark(o.Kind), o.Track)
		m.recent = append(m.recent, line)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
	}
}

func (m *Model) finish(report *models.TransferReport, err error) {
	m.report = report
	m.err = err
	m.view = ResultView
	if report != nil {
		m.outcomes.SetItems(outcomeItems(report.Outcomes))
		m.outcomes.Title = fmt.Sprintf("Tracks in '%s'", report.Summary.Title)
	}
}

// percent is the share of tracks processed, or 1 once the transfer completed.
func (m *Model) percent() float64 {
	switch {
	case m.progress.Phase == tasks.Completed:
		return 1
	case m.progress.Phase == tasks.MatchingAndWriting && m.progress.Total > 0:
		return float64(m.progress.Step) / float64(m.progress.Total)
	default:
		return 0
	}
}

func phaseLabel(p tasks.Phase) string {
	switch p {
	case tasks.ParsingInput:
		return "Reading playlist URL..."
	case tasks.ReadingSource:
		return "Fetching Spotify playlist..."
	case tasks.CreatingDestination:
		return "Creating YouTube playlist..."
	case tasks.MatchingAndWriting:
		return "Searching and adding tracks"
	case tasks.Completed:
		return "Done"
	case tasks.Failed:
		return "Failed"
	default:
		return "Processing..."
	}
}

func (m *Model) renderTransfer() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Transferring Playlist"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s", m.spinner.View(), phaseLabel(m.progress.Phase))
	if m.progress.Phase == tasks.MatchingAndWriting {
		fmt.Fprintf(&b, " (%d/%d)", m.progress.Step, m.progress.Total)
	}
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString("\n\n")

	if m.progress.Message != "" {
		b.WriteString(styles.muted.Render(m.progress.Message))
		b.WriteString("\n")
	}
	for _, line := range m.recent {
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.err.Render("✗ Transfer failed"))
		b.WriteString("\n\n")
		var terr *tasks.TransferError
		if errors.As(m.err, &terr) {
			fmt.Fprintf(&b, "Stage: %s\n", terr.Phase)
		}
		fmt.Fprintf(&b, "Error: %v\n", m.err)
		if errors.Is(m.err, context.Canceled) {
			b.WriteString(styles.warn.Render("Cancelled; tracks added so far remain in the playlist."))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(styles.ok.Render("✓ Transfer Complete!"))
		b.WriteString("\n")
	}

	if m.report != nil {
		s := m.report.Summary
		if s.DestinationPlaylistID != "" {
			fmt.Fprintf(&b, "\nPlaylist: %s\n%s\n", s.Title, formatter.PlaylistURL(s.DestinationPlaylistID))
		}
		fmt.Fprintf(&b, "Added: %d  Skipped: %d\n\n", s.Counts.Added, s.Counts.Skipped)
		if len(m.report.Outcomes) > 0 {
			b.WriteString(m.outcomes.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.restart, m.keys.quit}))
	return b.String()
}
