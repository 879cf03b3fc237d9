package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/cyberdrill/internal/handlers"
	"github.com/jwebster45206/cyberdrill/pkg/engine"
	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/session"
	"github.com/jwebster45206/cyberdrill/pkg/timeline"
)

const (
	pollInterval    = 2 * time.Second
	placeholderText = "Reasoning for your decision..."
)

// ConsoleUI is the BubbleTea model that runs the game-room view.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config     *ConsoleConfig
	client     *http.Client
	sess       *session.Session
	playerName string
	role       string

	timelineViewport viewport.Model
	textarea         textarea.Model
	ready            bool
	width            int
	height           int
	err              error

	events         []timeline.Event
	snapshot       engine.Snapshot
	selectedOption int
	lastEventCount int
	status         string
}

type timelineMsg struct {
	resp *handlers.TimelineResponse
	err  error
}

type actionDoneMsg struct {
	what string
	err  error
}

type pollTickMsg struct{}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("36"))

	severityStyles = map[string]lipgloss.Style{
		"low":      lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		"medium":   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"high":     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"critical": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}

	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Underline(true)
	resolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Italic(true)
	waitingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	endingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, sess *session.Session, playerName, role string) *ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.SetHeight(3)
	ta.CharLimit = 500

	return &ConsoleUI{
		config:     cfg,
		client:     client,
		sess:       sess,
		playerName: playerName,
		role:       role,
		textarea:   ta,
		status:     "Connecting...",
	}
}

func (ui *ConsoleUI) Init() tea.Cmd {
	return tea.Batch(ui.fetchTimelineCmd(), ui.pollCmd())
}

func (ui *ConsoleUI) fetchTimelineCmd() tea.Cmd {
	return func() tea.Msg {
		resp, err := fetchTimeline(ui.client, ui.config.APIBaseURL, ui.sess.ID, ui.role)
		return timelineMsg{resp: resp, err: err}
	}
}

func (ui *ConsoleUI) pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (ui *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		vpHeight := msg.Height - 10
		if vpHeight < 5 {
			vpHeight = 5
		}
		if !ui.ready {
			ui.timelineViewport = viewport.New(msg.Width-2, vpHeight)
			ui.ready = true
		} else {
			ui.timelineViewport.Width = msg.Width - 2
			ui.timelineViewport.Height = vpHeight
		}
		ui.textarea.SetWidth(msg.Width - 4)
		ui.refreshContent()
		return ui, nil

	case pollTickMsg:
		return ui, tea.Batch(ui.fetchTimelineCmd(), ui.pollCmd())

	case timelineMsg:
		if msg.err != nil {
			ui.err = msg.err
			return ui, nil
		}
		ui.err = nil
		ui.events = msg.resp.Events
		ui.snapshot = msg.resp.Snapshot
		ui.refreshContent()
		// Newest event must always be reachable without manual scrolling.
		if len(ui.events) != ui.lastEventCount {
			ui.lastEventCount = len(ui.events)
			ui.timelineViewport.GotoBottom()
		}
		return ui, nil

	case actionDoneMsg:
		if msg.err != nil {
			ui.err = msg.err
		} else {
			ui.err = nil
			ui.status = msg.what
		}
		return ui, ui.fetchTimelineCmd()

	case tea.KeyMsg:
		return ui.handleKey(msg)
	}

	var cmd tea.Cmd
	ui.timelineViewport, cmd = ui.timelineViewport.Update(msg)
	return ui, cmd
}

func (ui *ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return ui, tea.Quit

	case "ctrl+s":
		return ui, func() tea.Msg {
			err := skipDelay(ui.client, ui.config.APIBaseURL, ui.sess.ID, ui.role)
			return actionDoneMsg{what: "Delay skipped", err: err}
		}

	case "ctrl+d":
		return ui, func() tea.Msg {
			debrief, err := fetchDebrief(ui.client, ui.config.APIBaseURL, ui.sess.ID)
			if err != nil {
				return actionDoneMsg{err: err}
			}
			err = clipboard.WriteAll(formatDebrief(debrief))
			return actionDoneMsg{what: "Debrief copied to clipboard", err: err}
		}

	case "enter":
		if ev := ui.waitingEvent(); ev != nil && ui.selectedOption > 0 && ui.selectedOption <= len(ev.Options) {
			opt := ev.Options[ui.selectedOption-1]
			reasoning := strings.TrimSpace(ui.textarea.Value())
			if reasoning == "" {
				ui.err = fmt.Errorf("reasoning is required before submitting")
				return ui, nil
			}
			ui.textarea.Reset()
			ui.selectedOption = 0
			eventID := ev.ID
			return ui, func() tea.Msg {
				err := submitDecision(ui.client, ui.config.APIBaseURL, ui.sess.ID, ui.role, eventID, opt.ID, reasoning)
				return actionDoneMsg{what: "Decision submitted: " + opt.Label, err: err}
			}
		}

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if ev := ui.waitingEvent(); ev != nil && !ui.textarea.Focused() {
			n := int(msg.String()[0] - '0')
			if n <= len(ev.Options) {
				ui.selectedOption = n
				ui.textarea.Focus()
				ui.refreshContent()
				return ui, textarea.Blink
			}
		}
	}

	if ui.textarea.Focused() {
		var cmd tea.Cmd
		ui.textarea, cmd = ui.textarea.Update(msg)
		return ui, cmd
	}

	var cmd tea.Cmd
	ui.timelineViewport, cmd = ui.timelineViewport.Update(msg)
	return ui, cmd
}

// waitingEvent returns the decision point blocking this player, if any.
func (ui *ConsoleUI) waitingEvent() *timeline.Event {
	if ui.snapshot.WaitingEventID == "" {
		return nil
	}
	for i := range ui.events {
		if ui.events[i].ID == ui.snapshot.WaitingEventID {
			return &ui.events[i]
		}
	}
	return nil
}

func (ui *ConsoleUI) refreshContent() {
	if !ui.ready {
		return
	}
	ui.timelineViewport.SetContent(ui.renderTimeline())
}

func (ui *ConsoleUI) renderTimeline() string {
	if len(ui.events) == 0 {
		return dimStyle.Render("Events will appear as the simulation progresses...")
	}

	width := ui.timelineViewport.Width
	var b strings.Builder
	for i := range ui.events {
		ev := &ui.events[i]
		b.WriteString(ui.renderEvent(ev, width))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (ui *ConsoleUI) renderEvent(ev *timeline.Event, width int) string {
	sevStyle, ok := severityStyles[ev.Severity]
	if !ok {
		sevStyle = severityStyles["medium"]
	}

	title := fmt.Sprintf("[%s] %s", formatOffset(ev.ScheduledTime), ev.Title)
	if ev.Type == timeline.EventEnding {
		title = fmt.Sprintf("[%s] === %s (%s) ===", formatOffset(ev.ScheduledTime), ev.Title, ev.EndingType)
		sevStyle = endingStyle
	}

	var b strings.Builder
	b.WriteString(sevStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(wordwrap.String(ev.Description, width))

	if len(ev.RecipientRole) > 0 {
		roles := make([]string, len(ev.RecipientRole))
		for i, r := range ev.RecipientRole {
			roles[i] = persona.Display(r)
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("For: " + strings.Join(roles, ", ")))
	}

	if ev.Type == timeline.EventDecision {
		b.WriteString("\n")
		switch {
		case ev.Resolution != nil:
			label := ev.Resolution.DecisionLabel
			if label == "" {
				label = ev.Resolution.Decision
			}
			line := "Resolved: " + label
			if ev.Resolution.Reasoning != "" {
				line += " (" + ev.Resolution.Reasoning + ")"
			}
			b.WriteString(resolvedStyle.Render(wordwrap.String(line, width)))
		case ev.ID == ui.snapshot.WaitingEventID:
			b.WriteString(waitingStyle.Render("YOUR DECISION REQUIRED"))
			for i, opt := range ev.Options {
				b.WriteString("\n")
				style := optionStyle
				if ui.selectedOption == i+1 {
					style = selectedStyle
				}
				b.WriteString(style.Render(fmt.Sprintf("  %d) %s", i+1, opt.Label)))
				if opt.Description != "" {
					b.WriteString("\n")
					b.WriteString(dimStyle.Render(wordwrap.String("     "+opt.Description, width)))
				}
			}
		default:
			b.WriteString(dimStyle.Render("Pending decision (another role)"))
		}
	}

	return b.String()
}

func (ui *ConsoleUI) View() string {
	if !ui.ready {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("[CYBERDRILL] %s | %s (%s)",
		ui.snapshot.SessionName, ui.playerName, persona.Display(ui.role)))

	status := ui.status
	switch {
	case ui.err != nil:
		status = "Error: " + ui.err.Error()
	case ui.snapshot.WaitingEventID != "":
		status = "Waiting for your decision. Pick an option by number, type reasoning, press enter."
	case ui.snapshot.Delaying:
		status = "Next event incoming... (ctrl+s to skip the wait)"
	case ui.snapshot.Done:
		status = "Scenario complete. ctrl+d copies the debrief."
	}

	parts := []string{
		header,
		ui.timelineViewport.View(),
		dimStyle.Render(status),
	}
	if ui.selectedOption > 0 {
		parts = append(parts, ui.textarea.View())
	}
	parts = append(parts, dimStyle.Render("ctrl+s skip · ctrl+d debrief · esc quit"))

	return strings.Join(parts, "\n")
}

func formatOffset(seconds int) string {
	return fmt.Sprintf("T+%02d:%02d", seconds/60, seconds%60)
}

func formatDebrief(d *handlers.DebriefResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Debrief: %s (%s)\n", d.SessionName, d.Phase))
	for _, entry := range d.Entries {
		label := entry.Resolution.DecisionLabel
		if label == "" {
			label = entry.Resolution.Decision
		}
		b.WriteString(fmt.Sprintf("\n[%s] %s\n  Decision: %s\n  Reasoning: %s\n",
			formatOffset(entry.Event.ScheduledTime), entry.Event.Title, label, entry.Resolution.Reasoning))
	}
	return b.String()
}
