package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Kitrop/workflow/internal/cli/formatter"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/report"
	"github.com/Kitrop/workflow/internal/service"
)

type browserKeys struct {
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newBrowserKeys() browserKeys {
	return browserKeys{
		Next:    key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "next metric")),
		Prev:    key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←/h", "prev metric")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k browserKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Quit, k.Help}
}

func (k browserKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next}, {k.Refresh, k.Help, k.Quit}}
}

// seriesLoadedMsg carries one loaded metric back to the browser.
type seriesLoadedMsg struct {
	metric report.Metric
	series report.Series
	err    error
}

// reportBrowser pages through every metric for one window. Series are
// loaded lazily and cached until reload.
type reportBrowser struct {
	ctx     context.Context
	reports service.ReportService
	actor   domain.Actor
	window  domain.DateWindow

	cursor  int
	loaded  map[report.Metric]report.Series
	loading bool
	err     error

	keys browserKeys
	help help.Model
}

func newReportBrowser(ctx context.Context, reports service.ReportService, actor domain.Actor, w domain.DateWindow) *reportBrowser {
	return &reportBrowser{
		ctx:     ctx,
		reports: reports,
		actor:   actor,
		window:  w,
		loaded:  map[report.Metric]report.Series{},
		keys:    newBrowserKeys(),
		help:    help.New(),
	}
}

func (m *reportBrowser) metric() report.Metric { return report.Metrics[m.cursor] }

func (m *reportBrowser) Init() tea.Cmd {
	return m.load()
}

func (m *reportBrowser) load() tea.Cmd {
	metric := m.metric()
	if _, ok := m.loaded[metric]; ok {
		return nil
	}
	m.loading = true
	ctx, reports, req := m.ctx, m.reports, report.Request{Actor: m.actor, Metric: metric, Window: m.window}
	return func() tea.Msg {
		series, err := reports.Series(ctx, req)
		return seriesLoadedMsg{metric: metric, series: series, err: err}
	}
}

func (m *reportBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case seriesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.loaded[msg.metric] = msg.series
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.cursor = (m.cursor + 1) % len(report.Metrics)
			m.err = nil
			return m, m.load()
		case key.Matches(msg, m.keys.Prev):
			m.cursor = (m.cursor + len(report.Metrics) - 1) % len(report.Metrics)
			m.err = nil
			return m, m.load()
		case key.Matches(msg, m.keys.Refresh):
			delete(m.loaded, m.metric())
			m.err = nil
			return m, m.load()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}
	return m, nil
}

func (m *reportBrowser) View() string {
	var b strings.Builder
	tabs := make([]string, 0, len(report.Metrics))
	for i, metric := range report.Metrics {
		if i == m.cursor {
			tabs = append(tabs, formatter.StyleHeader.Render("["+string(metric)+"]"))
		} else {
			tabs = append(tabs, formatter.Dim(string(metric)))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	metric := m.metric()
	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.loading:
		b.WriteString(formatter.Dim("loading " + metric.Title() + "…"))
		b.WriteString("\n")
	default:
		b.WriteString(formatter.RenderSeries(metric.Title(), m.window, m.loaded[metric]))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func newReportBrowseCmd(app *App, actor actorFunc) *cobra.Command {
	var wf windowFlags

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through every report interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("report browse needs a terminal; use report series instead")
			}
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			w, err := wf.window()
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newReportBrowser(ctx, app.Reports, a, w), tea.WithContext(ctx)).Run()
			return err
		},
	}
	wf.register(cmd.Flags())
	return cmd
}
