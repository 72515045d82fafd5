// Package top is a live dashboard of the fleet over the MQTT bridge.
package top

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
)

// DefaultRefresh is the redraw period.
const DefaultRefresh = 500 * time.Millisecond

// NodeMsg reports a node appearing or leaving.
type NodeMsg struct {
	Info mqtt.NodeInfo
	Gone bool
}

// StatsMsg carries a link summary.
type StatsMsg struct {
	Ref   mqtt.NodeRef
	Stats *msgs.LinkStats
}

// StateMsg carries agent telemetry.
type StateMsg struct {
	Ref   mqtt.NodeRef
	State *msgs.State
}

type tickMsg time.Time

type row struct {
	info    mqtt.NodeInfo
	stats   *msgs.LinkStats
	state   *msgs.State
	updated time.Time
}

// Model is the dashboard state.
type Model struct {
	Title   string
	Refresh time.Duration
	Now     func() time.Time

	rows map[string]*row
	now  time.Time
}

// NewModel creates a Model.
func NewModel(title string) *Model {
	return &Model{
		Title:   title,
		Refresh: DefaultRefresh,
		Now:     time.Now,
		rows:    make(map[string]*row),
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.Refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.now = m.Now()
	return m.tick()
}

func (m *Model) row(ref mqtt.NodeRef) *row {
	r := m.rows[ref.Name()]
	if r == nil {
		r = &row{info: mqtt.NodeInfo{Ref: ref, Meta: mqtt.NodeMeta{AgentID: -1}}}
		m.rows[ref.Name()] = r
	}
	return r
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.now = time.Time(msg)
		return m, m.tick()
	case NodeMsg:
		if msg.Gone {
			delete(m.rows, msg.Info.Ref.Name())
			break
		}
		m.row(msg.Info.Ref).info = msg.Info
	case StatsMsg:
		r := m.row(msg.Ref)
		r.stats, r.updated = msg.Stats, m.Now()
	case StateMsg:
		r := m.row(msg.Ref)
		r.state, r.updated = msg.State, m.Now()
	}
	return m, nil
}

func age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return now.Sub(t).Truncate(100 * time.Millisecond).String()
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d nodes\n\n", m.Title, len(m.rows))
	fmt.Fprintf(&b, "%-28s %-15s %5s %8s %10s %6s %8s %6s\n",
		"NODE", "ADDR", "AGENT", "FPS", "LAT(us)", "LOST", "ALT(m)", "AGE")
	names := make([]string, 0, len(m.rows))
	for name := range m.rows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := m.rows[name]
		agent := "-"
		if r.info.Meta.AgentID >= 0 {
			agent = fmt.Sprint(r.info.Meta.AgentID)
		}
		var fps, lat float64
		var lost uint64
		if r.stats != nil {
			fps, lat, lost = r.stats.Fps, r.stats.LatencyUs, r.stats.Lost
		}
		alt := "-"
		if r.state != nil {
			alt = fmt.Sprintf("%.2f", r.state.Altitude)
		}
		fmt.Fprintf(&b, "%-28s %-15s %5s %8.1f %10.0f %6d %8s %6s\n",
			name, r.info.Meta.Address, agent, fps, lat, lost, alt, age(m.now, r.updated))
		if r.stats == nil {
			continue
		}
		for _, p := range r.stats.Peers {
			fmt.Fprintf(&b, "  - agent %-18d %-15s %5s %8.1f %10.0f %6d\n",
				p.AgentId, p.Addr, "", p.Fps, p.LatencyUs, p.Lost)
		}
	}
	b.WriteString("\npress q to quit\n")
	return b.String()
}

// MsgFromPayload converts a bridged message to a dashboard message.
func MsgFromPayload(topic string, payload []byte) (tea.Msg, bool) {
	ref, kind, ok := mqtt.ParseTopic(topic)
	if !ok {
		return nil, false
	}
	if kind == mqtt.TopicMeta {
		if len(payload) == 0 {
			return NodeMsg{Info: mqtt.NodeInfo{Ref: ref}, Gone: true}, true
		}
		info, ok := mqtt.ParseMeta(topic, payload)
		return NodeMsg{Info: info}, ok
	}
	msg, err := msgs.DecodeMessage(payload)
	if err != nil {
		return nil, false
	}
	switch m := msg.(type) {
	case *msgs.LinkStats:
		return StatsMsg{Ref: ref, Stats: m}, true
	case *msgs.State:
		return StateMsg{Ref: ref, State: m}, true
	}
	return nil, false
}
