package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/AndrewLester/ntpquery/internal/sugar"
	"github.com/AndrewLester/ntpquery/internal/ui"
	"github.com/AndrewLester/ntpquery/pkg/ntpal"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func handleQueryCommand(client *ntpal.Client, overrides ntpal.Overrides, inspect bool) {
	m := queryCommandModel{
		client:    client,
		overrides: overrides,
		request:   overrides.Apply(client.Config),
		inspect: inspect,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	program := tea.NewProgram(m)
	client.Status = func(status ntpal.Status, _ ntpal.QueryRequest) {
		program.Send(statusMessage(status))
	}

	if _, err := sugar.RunProgramWithErrors(program); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

type queryCommandModel struct {
	spinner   spinner.Model
	client    *ntpal.Client
	overrides ntpal.Overrides
	request   ntpal.QueryRequest
	inspect   bool

	status     ntpal.Status
	result     *ntpal.QueryResult
	offset     time.Duration
	serverInfo *ntpal.ServerInfo
	inspectErr error
	err        error
}

type statusMessage ntpal.Status
type ntpQueryMessage struct {
	result     *ntpal.QueryResult
	offset     time.Duration
	serverInfo *ntpal.ServerInfo
	inspectErr error
}
type ntpQueryError struct{ err error }

func ntpQueryCommand(m queryCommandModel) tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.Query(context.Background(), m.overrides)
		if err != nil {
			return ntpQueryError{err}
		}

		message := ntpQueryMessage{result: result, offset: result.LocalOffset(ntpal.GetSystemTime())}
		if m.inspect {
			message.serverInfo, message.inspectErr = ntpal.Inspect(m.request)
		}
		return message
	}
}

func (m queryCommandModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, ntpQueryCommand(m))
}

func (m queryCommandModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	case statusMessage:
		m.status = ntpal.Status(msg)
		return m, nil
	case ntpQueryMessage:
		m.status = ntpal.StatusSuccess
		m.result = msg.result
		m.offset = msg.offset
		m.serverInfo = msg.serverInfo
		m.inspectErr = msg.inspectErr
		return m, tea.Quit
	case ntpQueryError:
		m.status = ntpal.StatusError
		m.err = msg.err
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m queryCommandModel) View() (s string) {
	target := net.JoinHostPort(m.request.Server, strconv.Itoa(m.request.Port))

	switch m.status {
	case ntpal.StatusError:
		return ui.Title("NTPal - Query") + " " + ui.Failure(m.status.String()) + "\n"
	case ntpal.StatusSuccess:
		if m.result == nil {
			break
		}
		s += ui.Title("NTPal - Query") + " " + ui.Success(m.status.String()) + "\n\n"
		s += resultView(target, m.result, m.offset)
		if m.serverInfo != nil {
			s += serverInfoView(m.serverInfo)
		} else if m.inspectErr != nil {
			s += ui.Label("Inspect") + ui.Failure(m.inspectErr.Error()) + "\n"
		}
		return
	}

	s += ui.Title("NTPal - Query") + "\n\n"
	s += m.spinner.View() + " " + m.status.String() + " " + target + "\n\n"
	s += ui.Help("q: exit") + "\n"
	return
}

func resultView(target string, result *ntpal.QueryResult, offset time.Duration) (s string) {
	s += ui.Label("Server") + target + "\n"
	s += ui.Label("ISO 8601") + result.ISO8601 + "\n"
	s += ui.Label("Date") + result.CalendarString + "\n"
	s += ui.Label("Unix") + strconv.FormatInt(result.UnixSeconds, 10) + "\n"
	s += ui.Label("Timestamp") + strconv.FormatFloat(result.TimestampMillis, 'f', 3, 64) + " ms\n"
	s += ui.Label("Delay") + strconv.FormatInt(result.RoundTripDelayMillis, 10) + " ms\n"
	s += ui.Label("Local") + formatOffset(offset) + "\n"
	s += ui.Label("Stratum") + strconv.Itoa(int(result.Header.Stratum)) + "\n"
	s += ui.Label("Root delay") + result.RootDelay().String() + "\n"
	s += ui.Label("Root disp") + result.RootDispersion().String() + "\n"
	s += ui.Label("Ref time") + result.ReferenceTime().UTC().Format(time.RFC3339Nano) + "\n"
	return
}

func serverInfoView(serverInfo *ntpal.ServerInfo) (s string) {
	s += ui.Label("Reference") + serverInfo.ReferenceID + "\n"
	s += ui.Label("Leap") + strconv.Itoa(int(serverInfo.Leap)) + "\n"
	s += ui.Label("Offset") + formatOffset(serverInfo.ClockOffset) + "\n"
	s += ui.Label("RTT") + serverInfo.RTT.String() + "\n"
	s += ui.Label("Root dist") + serverInfo.RootDistance.String() + "\n"
	if serverInfo.Problem != "" {
		s += ui.Label("Problem") + ui.Failure(serverInfo.Problem) + "\n"
	}
	return
}

func formatOffset(offset time.Duration) string {
	offsetString := strconv.FormatFloat(float64(offset)/float64(time.Millisecond), 'G', 5, 64) + " ms"
	if offset > 0 {
		offsetString = "+" + offsetString
	}
	return offsetString
}

func (m queryCommandModel) GetError() error {
	return m.err
}
