package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/V4T54L/logmon/internal/domain"
)

var (
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	moduleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Italic(true)
	sessionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(4)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

	levelStyles = map[domain.Level]lipgloss.Style{
		domain.LevelInfo:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		domain.LevelDebug:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		domain.LevelProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.LevelSuccess:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		domain.LevelWarning:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		domain.LevelError:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		domain.LevelAnalysis:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	}

	statusStyles = map[domain.SessionStatus]lipgloss.Style{
		domain.SessionActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.SessionCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		domain.SessionFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// renderEvent formats one event as a single line, plus an indented line for
// its details when present.
func renderEvent(e domain.LogEvent) string {
	level := fmt.Sprintf("%-10s", e.Level)
	if style, ok := levelStyles[e.Level]; ok {
		level = style.Render(level)
	}

	var b strings.Builder
	b.WriteString(timeStyle.Render(e.Timestamp.Local().Format("15:04:05.000")))
	b.WriteString(" ")
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(moduleStyle.Render(e.Module))
	b.WriteString(" ")
	b.WriteString(e.Message)
	b.WriteString(" ")
	b.WriteString(sessionStyle.Render("[" + e.SessionID + "]"))
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(e.Details))
	}
	return b.String()
}

func renderSessionEnd(s domain.Session) string {
	status := string(s.Status)
	if style, ok := statusStyles[s.Status]; ok {
		status = style.Render(status)
	}
	return fmt.Sprintf("── session %s %s after %d logs", s.SessionID, status, s.LogCount)
}

// renderSummary prints the session table shown when tail exits.
func renderSummary(w io.Writer, sessions []domain.Session) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d sessions", len(sessions))))

	sorted := make([]domain.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	for _, s := range sorted {
		status := string(s.Status)
		if style, ok := statusStyles[s.Status]; ok {
			status = style.Render(fmt.Sprintf("%-9s", s.Status))
		}
		question := s.Question
		if question == "" {
			question = "-"
		}
		fmt.Fprintf(w, "  %s %s %4d  %s\n", status, sessionStyle.Render(s.SessionID), s.LogCount, question)
	}
}
