package sessions

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter marks sessions whose last sync is older than this.
	StaleAfter time.Duration
}

func renderView(list []domain.Session, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Shopper Bot Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(list))),
	}

	if len(list) == 0 {
		lines = append(lines, s.empty.Render("No sessions stored."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, session := range list {
		lines = append(lines, s.section.Render(renderSession(session, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(session domain.Session, opts RenderOptions, s styles) string {
	parts := []string{
		s.chat.Render(sessionTitle(session)),
		s.detail.Render(fmt.Sprintf("phase: %s", phaseLabel(session.Phase))),
		s.detail.Render(fmt.Sprintf("orders: %d  commissions: %d", len(session.Deliveries), len(session.Commissions))),
	}

	parts = append(parts, syncLine(session, opts, s))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func sessionTitle(session domain.Session) string {
	if session.Email != "" {
		return fmt.Sprintf("chat %s (%s)", session.ChatID, session.Email)
	}
	return fmt.Sprintf("chat %s", session.ChatID)
}

func phaseLabel(phase domain.Phase) string {
	switch phase {
	case domain.PhaseGreeting:
		return "greeting"
	case domain.PhaseAskEmail:
		return "waiting for email"
	case domain.PhaseAskPassword:
		return "waiting for password"
	case domain.PhaseAnswerQueries:
		return "answering queries"
	default:
		return string(phase)
	}
}

func syncLine(session domain.Session, opts RenderOptions, s styles) string {
	lastSynced := session.Cursor.LastSyncedAt
	if lastSynced.IsZero() {
		return s.meta.Render("last sync: never")
	}

	line := fmt.Sprintf("last sync: %s", lastSynced.Format(time.RFC3339))
	if !opts.Now.IsZero() && opts.StaleAfter > 0 && opts.Now.Sub(lastSynced) > opts.StaleAfter {
		return s.stale.Render(line + " (stale)")
	}
	return s.meta.Render(line)
}
