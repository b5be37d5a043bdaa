package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"deltaban/internal/httpapi"
	"deltaban/internal/report"
	"deltaban/internal/util"
	sdk "deltaban/pkg/deltaban"
)

// Styles.
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	banStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	paneTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activePaneStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	colHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	violationStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	okStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	deltaPosStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	deltaNegStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Messages.
type sessionMsg struct {
	sess *httpapi.SessionJSON
	err  error
}

type assessMsg struct {
	a        *httpapi.AssessmentJSON
	recorded bool
	err      error
}

// Input form fields, cycled with tab/enter while adding a row.
const (
	fieldKind = iota
	fieldDirection
	fieldQuantity
	fieldSensitivity
	fieldCount
)

var fieldLabels = [fieldCount]string{"kind (f/c/p)", "direction (l/s)", "quantity", "sensitivity"}

// Model.
type model struct {
	client *sdk.Client
	logger *slog.Logger

	sessionID int64
	sess      *httpapi.SessionJSON
	assess    *httpapi.AssessmentJSON

	side string // "base" or "new", the pane receiving edits

	adding bool
	field  int
	inputs [fieldCount]textinput.Model
	status string

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(client *sdk.Client, sess *httpapi.SessionJSON, logger *slog.Logger) model {
	m := model{
		client:    client,
		logger:    logger,
		sessionID: sess.ID,
		sess:      sess,
		side:      "base",
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 16
		m.inputs[i] = ti
	}
	return m
}

func (m model) Init() tea.Cmd {
	return m.assessCmd(false)
}

// refreshCmd reloads the session from the server.
func (m model) refreshCmd() tea.Cmd {
	client, id := m.client, m.sessionID
	return func() tea.Msg {
		sess, err := client.GetSession(context.Background(), id)
		return sessionMsg{sess: sess, err: err}
	}
}

// assessCmd recomputes (and optionally records) the assessment.
func (m model) assessCmd(record bool) tea.Cmd {
	client, id := m.client, m.sessionID
	return func() tea.Msg {
		var (
			a   *httpapi.AssessmentJSON
			err error
		)
		if record {
			a, err = client.RecordAssessment(context.Background(), id)
		} else {
			a, err = client.GetAssessment(context.Background(), id)
		}
		return assessMsg{a: a, recorded: record, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m.updateForm(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.side == "base" {
				m.side = "new"
			} else {
				m.side = "base"
			}
			m.refreshContent()
			return m, nil
		case "a":
			m.adding = true
			m.field = fieldKind
			for i := range m.inputs {
				m.inputs[i].SetValue("")
				m.inputs[i].Blur()
			}
			m.inputs[fieldKind].Focus()
			m.refreshContent()
			return m, textinput.Blink
		case "u":
			client, id, side := m.client, m.sessionID, m.side
			return m, func() tea.Msg {
				if err := client.RemoveLastPosition(context.Background(), id, side); err != nil {
					return sessionMsg{err: err}
				}
				sess, err := client.GetSession(context.Background(), id)
				return sessionMsg{sess: sess, err: err}
			}
		case "x":
			client, id, side := m.client, m.sessionID, m.side
			return m, func() tea.Msg {
				if err := client.ClearBook(context.Background(), id, side); err != nil {
					return sessionMsg{err: err}
				}
				sess, err := client.GetSession(context.Background(), id)
				return sessionMsg{sess: sess, err: err}
			}
		case "c":
			client, id := m.client, m.sessionID
			return m, func() tea.Msg {
				sess, err := client.CopyBaseToNew(context.Background(), id)
				return sessionMsg{sess: sess, err: err}
			}
		case "r":
			return m, m.assessCmd(true)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshContent()
		return m, nil

	case sessionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.logger.Error("session refresh", "error", msg.err)
			m.refreshContent()
			return m, nil
		}
		m.sess = msg.sess
		m.refreshContent()
		return m, m.assessCmd(false)

	case assessMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.logger.Error("assessment", "error", msg.err)
		} else {
			m.assess = msg.a
			if msg.recorded {
				m.status = "assessment recorded to journal"
				m.logger.Info("assessment recorded", "stock", msg.a.Stock)
			}
		}
		m.refreshContent()
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// updateForm handles key events while the add-position form is open.
func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
		m.status = ""
		m.refreshContent()
		return m, nil
	case "enter", "tab":
		if m.field < fieldCount-1 {
			m.inputs[m.field].Blur()
			m.field++
			m.inputs[m.field].Focus()
			m.refreshContent()
			return m, textinput.Blink
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
	m.refreshContent()
	return m, cmd
}

// submitForm validates the form fields and sends the new position.
func (m model) submitForm() (tea.Model, tea.Cmd) {
	kind, err := parseKindInput(m.inputs[fieldKind].Value())
	if err != nil {
		m.status = err.Error()
		m.refreshContent()
		return m, nil
	}
	direction, err := parseDirectionInput(m.inputs[fieldDirection].Value())
	if err != nil {
		m.status = err.Error()
		m.refreshContent()
		return m, nil
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[fieldQuantity].Value()), 64)
	if err != nil {
		m.status = "quantity must be a number"
		m.refreshContent()
		return m, nil
	}
	sens := 0.0
	if v := strings.TrimSpace(m.inputs[fieldSensitivity].Value()); v != "" {
		if sens, err = strconv.ParseFloat(v, 64); err != nil {
			m.status = "sensitivity must be a number"
			m.refreshContent()
			return m, nil
		}
	}

	m.adding = false
	m.status = ""
	client, id, side := m.client, m.sessionID, m.side
	req := httpapi.AddPositionRequest{
		Kind: kind, Direction: direction, Quantity: qty, Sensitivity: sens,
	}
	m.refreshContent()
	return m, func() tea.Msg {
		if _, err := client.AddPosition(context.Background(), id, side, req); err != nil {
			return sessionMsg{err: err}
		}
		sess, err := client.GetSession(context.Background(), id)
		return sessionMsg{sess: sess, err: err}
	}
}

func parseKindInput(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "fut", "future":
		return "Future", nil
	case "c", "call", "call option":
		return "Call Option", nil
	case "p", "put", "put option":
		return "Put Option", nil
	}
	return "", fmt.Errorf("kind must be f, c, or p")
}

func parseDirectionInput(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "long":
		return "Long", nil
	case "s", "short":
		return "Short", nil
	}
	return "", fmt.Errorf("direction must be l or s")
}

func (m *model) refreshContent() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerText := fmt.Sprintf(" %s  price %s  session #%d ",
		m.sess.Stock, report.FormatMoney(m.sess.Price), m.sess.ID)
	header := titleStyle.Render(padOrTrunc(headerText, m.width))
	if m.sess.Banned {
		banner := fmt.Sprintf(" %s IS IN THE F&O BAN PERIOD ", m.sess.Stock)
		header = banStyle.Render(padOrTrunc(banner+" "+headerText, m.width))
	}

	footerText := " q quit  tab side  a add  u undo  x clear  c copy base→new  r record"
	footer := footerStyle.Render(padOrTrunc(footerText, m.width))

	return header + "\n" + m.viewport.View() + "\n" + footer
}

func (m model) renderContent() string {
	var b strings.Builder

	renderBook(&b, "BASE BOOK (before)", m.sess.Base, m.side == "base", m.width)
	b.WriteString("\n")
	renderBook(&b, "NEW BOOK (after)", m.sess.New, m.side == "new", m.width)
	b.WriteString("\n")

	if m.adding {
		b.WriteString(paneTitleStyle.Render("  Add position to " + m.side + " book"))
		b.WriteString("\n")
		for i := range m.inputs {
			marker := "   "
			if i == m.field {
				marker = " > "
			}
			fmt.Fprintf(&b, "%s%-18s %s\n", marker, fieldLabels[i], m.inputs[i].View())
		}
		b.WriteString(dimStyle.Render("  enter next field, esc cancel"))
		b.WriteString("\n\n")
	}

	if m.assess != nil {
		renderAssessment(&b, m.assess)
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("  " + m.status))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBook(b *strings.Builder, label string, book httpapi.BookJSON, active bool, width int) {
	style := paneTitleStyle
	if active {
		style = activePaneStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("  %s  net delta %s ", label, report.FormatDelta(book.NetDelta))))
	b.WriteString("\n")

	if len(book.Positions) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
		b.WriteString("\n")
		return
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(
		"  %-3s %-13s %-6s %10s %12s %14s", "#", "Kind", "Dir", "Qty", "Sens", "Contribution")))
	b.WriteString("\n")
	for i, p := range book.Positions {
		contrib := report.FormatDelta(p.Contribution)
		cs := deltaPosStyle
		if p.Contribution < 0 {
			cs = deltaNegStyle
		}
		fmt.Fprintf(b, "  %-3d %-13s %-6s %10s %12.5f ",
			i+1, p.Kind, p.Direction, report.FormatQuantity(p.Quantity), p.Sensitivity)
		b.WriteString(cs.Render(fmt.Sprintf("%14s", contrib)))
		b.WriteString("\n")
	}
}

func renderAssessment(b *strings.Builder, a *httpapi.AssessmentJSON) {
	if a.Violation.IsViolation {
		b.WriteString(violationStyle.Render("  VIOLATION: " + a.Violation.Reason))
		b.WriteString("\n")
		fmt.Fprintf(b, "  magnitude %.4f\n", a.Violation.Magnitude)
		if a.Penalty != nil {
			fmt.Fprintf(b, "  raw %s  clamped %s  GST %s\n",
				report.FormatMoney(a.Penalty.Raw),
				report.FormatMoney(a.Penalty.Clamped),
				report.FormatMoney(a.Penalty.Surcharge))
			b.WriteString(violationStyle.Render(
				fmt.Sprintf("  TOTAL PENALTY %s", report.FormatMoney(a.Penalty.Total))))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(okStyle.Render("  " + a.Violation.Reason))
		b.WriteString("\n")
	}
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

func main() {
	stock := flag.String("stock", "", "stock symbol (required)")
	price := flag.Float64("price", 135.47, "reference price")
	session := flag.Int64("session", 0, "attach to an existing session instead of creating one")
	flag.Parse()

	serverURL := os.Getenv("DELTABAN_SERVER")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	client := sdk.NewClient(serverURL)

	logPath := fmt.Sprintf("/tmp/deltaban-tui-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()
	var sess *httpapi.SessionJSON
	err = util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		var rerr error
		if *session != 0 {
			sess, rerr = client.GetSession(ctx, *session)
		} else {
			if *stock == "" {
				return fmt.Errorf("-stock is required when not attaching to a session")
			}
			sess, rerr = client.CreateSession(ctx, *stock, *price)
		}
		return rerr
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", serverURL, err)
		os.Exit(1)
	}
	logger.Info("session ready", "id", sess.ID, "stock", sess.Stock)

	p := tea.NewProgram(
		initialModel(client, sess, logger),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
