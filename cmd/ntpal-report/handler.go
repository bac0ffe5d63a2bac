package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/AndrewLester/ntpquery/internal/stats"
	"github.com/AndrewLester/ntpquery/internal/templates"
	"github.com/AndrewLester/ntpquery/pkg/ntpal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type errorResponse struct {
	Error string `json:"error"`
}

func newReportHandler(client *ntpal.Client, recorder *stats.Recorder, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		data := map[string]any{
			"Server":        client.Config.Server,
			"Port":          client.Config.Port,
			"Timeout":       client.Config.Timeout,
			"TimeoutMillis": client.Config.Timeout.Milliseconds(),
		}
		if err := templates.TemplateExecutor.ExecuteTemplate(w, "index.tmpl.html", data); err != nil {
			log.Println("template error:", err)
		}
	})

	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		overrides, err := parseOverrides(r)
		if err == nil {
			var result *ntpal.QueryResult
			result, err = client.Query(r.Context(), overrides)
			recorder.Observe(result, err)
			if err == nil {
				writeJSON(w, http.StatusOK, result)
				return
			}
		} else {
			recorder.Observe(nil, err)
		}

		writeJSON(w, statusCode(err), errorResponse{Error: err.Error()})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

// parseOverrides reads per-request overrides. Absent or empty parameters
// stay unset so the client's configured defaults apply; an explicit zero is
// passed through and fails validation.
func parseOverrides(r *http.Request) (ntpal.Overrides, error) {
	values := r.URL.Query()
	overrides := ntpal.Overrides{Server: values.Get("server")}

	invalid := func(err error) error {
		return &ntpal.QueryError{Kind: ntpal.ErrInvalidArgument, Server: overrides.Server, Err: err}
	}

	if port := values.Get("port"); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return overrides, invalid(errors.New("port must be an integer"))
		}
		overrides.Port = &value
	}

	if timeout := values.Get("timeout"); timeout != "" {
		millis, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return overrides, invalid(errors.New("timeout must be an integer number of milliseconds"))
		}
		value, err := ntpal.MillisTimeout(millis)
		if err != nil {
			return overrides, invalid(err)
		}
		overrides.Timeout = &value
	}

	return overrides, nil
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, ntpal.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ntpal.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encode error:", err)
	}
}
