package main

import (
	"errors"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/AndrewLester/ntpquery/internal/stats"
	"github.com/AndrewLester/ntpquery/pkg/ntpal"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	port := os.Getenv("REPORT_PORT")
	if port == "" {
		port = "8080"
	}
	host := os.Getenv("REPORT_HOST")

	config := ntpal.DefaultConfig()
	if path := os.Getenv("NTPAL_CONFIG"); path != "" {
		var err error
		config, err = ntpal.ParseConfig(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Fatal(err)
		}
		if err != nil {
			config = ntpal.DefaultConfig()
		}
	}

	registry := prometheus.NewRegistry()
	recorder := stats.NewRecorder(registry)

	client := ntpal.NewClient(config)
	client.Status = recorder.Status

	log.Println("listening on", port)
	log.Fatal(http.ListenAndServe(net.JoinHostPort(host, port), newReportHandler(client, recorder, registry)))
}
