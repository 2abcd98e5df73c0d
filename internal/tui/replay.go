package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/replay"
)

// ReplayRequest carries the parameters of a batch replay run.
type ReplayRequest struct {
	Account     string
	Source      string
	Destination string
	Limit       int
	Skip        int
	Category    media.Category
}

var (
	replayHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	replayDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	replayCountStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("82"))
)

type replayProgressMsg replay.Progress

type replayDoneMsg struct {
	result replay.Progress
	err    error
}

type replayModel struct {
	spinner  spinner.Model
	req      ReplayRequest
	progress replay.Progress
	done     bool
	err      error
	updates  chan tea.Msg
}

func newReplayModel(req ReplayRequest, updates chan tea.Msg) replayModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return replayModel{spinner: s, req: req, updates: updates}
}

func (m replayModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

func (m replayModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m replayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case replayProgressMsg:
		m.progress = replay.Progress(msg)
		return m, m.waitForUpdate()
	case replayDoneMsg:
		m.done = true
		m.progress = msg.result
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m replayModel) View() string {
	header := replayHeaderStyle.Render(fmt.Sprintf("Replaying %s -> %s", m.req.Source, m.req.Destination))
	scope := replayDimStyle.Render(fmt.Sprintf("account %s, category %s, limit %d, skip %d",
		m.req.Account, m.req.Category, m.req.Limit, m.req.Skip))

	count := replayCountStyle.Render(fmt.Sprintf("%d", m.progress.Forwarded))
	line := fmt.Sprintf("%s %s forwarded", m.spinner.View(), count)
	if m.progress.LastID != 0 {
		line += replayDimStyle.Render(fmt.Sprintf("  (last message %d)", m.progress.LastID))
	}
	if m.done {
		line = fmt.Sprintf("  %s forwarded", count)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n", header, scope, line)
}

// RunReplay runs a batch replay behind a progress view. The replay itself
// runs on its own goroutine and feeds the view through the Notify hook.
func RunReplay(ctx context.Context, replayer *replay.Replayer, req ReplayRequest) (replay.Progress, error) {
	updates := make(chan tea.Msg, 16)
	replayer.Notify = func(p replay.Progress) {
		updates <- replayProgressMsg(p)
	}

	p := tea.NewProgram(newReplayModel(req, updates))

	go func() {
		result, err := replayer.Replay(ctx, req.Account, req.Source, req.Destination,
			req.Limit, req.Skip, req.Category)
		updates <- replayDoneMsg{result: result, err: err}
	}()

	final, err := p.Run()
	if err != nil {
		return replay.Progress{}, fmt.Errorf("progress view: %w", err)
	}
	m := final.(replayModel)
	if m.err != nil {
		return m.progress, m.err
	}
	return m.progress, nil
}
