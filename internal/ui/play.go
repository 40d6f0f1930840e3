// Package ui implements the interactive play loop as a terminal UI: deal a
// card, collect reactions, commit the round, repeat.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 3).
			Margin(1, 0)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tallyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type keyMap struct {
	Positive key.Binding
	Neutral  key.Binding
	Negative key.Binding
	Commit   key.Binding
	Skip     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Positive, k.Neutral, k.Negative, k.Commit, k.Skip, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Positive: key.NewBinding(
		key.WithKeys("j"),
		key.WithHelp("j", "laugh"),
	),
	Neutral: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "meh"),
	),
	Negative: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "trash"),
	),
	Commit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "next card"),
	),
	Skip: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "skip"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type dealtMsg struct {
	round *service.Round
	err   error
}

type committedMsg struct {
	result models.RoundResult
	err    error
}

// Model is the bubbletea model for the play loop.
type Model struct {
	svc  *service.Service
	game string
	help help.Model

	round    *service.Round
	dealt    time.Time
	feedback models.Feedback
	last     *models.RoundResult
	err      error
	quitting bool
}

// NewModel builds the play model for one game.
func NewModel(svc *service.Service, game string) Model {
	return Model{svc: svc, game: game, help: help.New()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.deal()
}

func (m Model) deal() tea.Cmd {
	return func() tea.Msg {
		round, err := m.svc.NextCard(context.Background(), m.game)
		return dealtMsg{round: round, err: err}
	}
}

func (m Model) commit() tea.Cmd {
	round := m.round
	fb := m.feedback
	fb.LatencyMs = int(time.Since(m.dealt).Milliseconds())
	return func() tea.Msg {
		result, err := m.svc.CommitRound(round, fb)
		return committedMsg{result: result, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dealtMsg:
		if msg.err != nil {
			m.err = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		m.round = msg.round
		m.dealt = time.Now()
		m.feedback = models.Feedback{}
		return m, nil

	case committedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		result := msg.result
		m.last = &result
		m.round = nil
		return m, m.deal()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Positive):
			m.feedback.Positive++
		case key.Matches(msg, keys.Neutral):
			m.feedback.Neutral++
		case key.Matches(msg, keys.Negative):
			m.feedback.Negative++
		case key.Matches(msg, keys.Commit):
			if m.round != nil {
				return m, m.commit()
			}
		case key.Matches(msg, keys.Skip):
			if m.round != nil {
				m.round = nil
				return m, m.deal()
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
		}
		return "thanks for playing\n"
	}
	if m.round == nil {
		return "dealing...\n"
	}

	var b []string
	b = append(b, titleStyle.Render(fmt.Sprintf("party-deck · %s · round %d", m.game, m.round.RoundIndex+1)))
	b = append(b, cardStyle.Render(m.round.Card.Text))
	b = append(b, metaStyle.Render(fmt.Sprintf("family %s · spice %d", m.round.Card.Family, m.round.Card.Spice)))
	b = append(b, tallyStyle.Render(fmt.Sprintf("laugh %d · meh %d · trash %d",
		m.feedback.Positive, m.feedback.Neutral, m.feedback.Negative)))
	if m.last != nil {
		b = append(b, resultStyle.Render(fmt.Sprintf("last round: %s reward %+.1f score %+.2f",
			m.last.TemplateID, m.last.Reward, m.last.Score)))
	}
	b = append(b, m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, b...) + "\n"
}
