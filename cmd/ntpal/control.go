package main

import (
	"log"
	"net"
	netrpc "net/rpc"
	"net/rpc/jsonrpc"
	"strconv"
	"time"

	"github.com/AndrewLester/ntpquery/internal/rpc"
	"github.com/AndrewLester/ntpquery/internal/ui"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func handleNTPalUI(socket string) {
	m := ntpalUIModel{socket: socket, table: setupTable()}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

const fetchInfoPeriod = time.Second * 5

type ntpalUIModel struct {
	socket string

	table            table.Model
	daemonKillStatus string
	records          []rpc.Record
}

var client *netrpc.Client

type dialSocketMessage *netrpc.Client
type fetchInfoMessage []rpc.Record
type tickMsg time.Time

func dialSocketCommand(m ntpalUIModel) tea.Cmd {
	return func() tea.Msg {
		client, err := jsonrpc.Dial("unix", m.socket)
		if err != nil {
			log.Fatalf("Error connecting to ntpal daemon: %v", err)
		}

		return dialSocketMessage(client)
	}
}

func fetchInfoCommand() tea.Cmd {
	return func() tea.Msg {
		var records []rpc.Record
		err := client.Call("QueryService.Recent", 0, &records)
		if err != nil {
			log.Fatalf("Error getting info from daemon: %v", err)
		}
		return fetchInfoMessage(records)
	}
}

func stopDaemonCommand() tea.Cmd {
	return func() tea.Msg {
		killDaemon()
		return nil
	}
}

func tickCommand(duration time.Duration) tea.Cmd {
	return tea.Tick(duration, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ntpalUIModel) Init() tea.Cmd {
	return dialSocketCommand(m)
}

func (m ntpalUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.table.Focused() {
				m.table.Blur()
			} else {
				m.table.Focus()
			}
		case "stop", "s":
			m.daemonKillStatus = "Stopping " + daemonName
			return m, tea.Sequence(stopDaemonCommand(), tea.Quit)
		case "ctrl+c", "q":
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	case dialSocketMessage:
		client = msg
		return m, tickCommand(0)
	case fetchInfoMessage:
		m.records = msg
		m.table.SetRows(recordRows(m.records, time.Now()))
		return m, nil
	case tickMsg:
		return m, tea.Batch(tickCommand(fetchInfoPeriod), fetchInfoCommand())
	default:
		return m, nil
	}
}

func recordRows(records []rpc.Record, now time.Time) []table.Row {
	rows := []table.Row{}
	for _, record := range records {
		row := table.Row{
			net.JoinHostPort(record.Request.Server, strconv.Itoa(record.Request.Port)),
			"-",
			"-",
			"error",
			now.Sub(record.At).Truncate(time.Second).String() + " ago",
		}
		if record.Result != nil {
			row[1] = record.Result.ISO8601
			row[2] = strconv.FormatInt(record.Result.RoundTripDelayMillis, 10)
			row[3] = "success"
		}
		rows = append(rows, row)
	}
	return rows
}

func (m ntpalUIModel) View() (s string) {
	s += ui.Title("NTPal") + "\n"
	s += ui.TableBase(m.table.View()) + "\n\n"
	if m.daemonKillStatus != "" {
		s += m.daemonKillStatus + "\n"
	} else {
		s += ui.Help("q: exit, s: stop daemon") + "\n"
	}
	return
}

func setupTable() table.Model {
	columns := []table.Column{
		{Title: "Server", Width: 24},
		{Title: "Transmit (UTC)", Width: 26},
		{Title: "Delay (ms)", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Queried", Width: 15},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.TableGray).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("218")).
		Background(lipgloss.Color("70")).
		Bold(false)
	t.SetStyles(s)

	return t
}
