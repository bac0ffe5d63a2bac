package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/AndrewLester/ntpquery/internal/rpc"
	"github.com/AndrewLester/ntpquery/pkg/ntpal"
	"github.com/sevlyar/go-daemon"
)

const defaultConfigPath = "/etc/ntpal.conf"
const defaultSocketPath = "/var/tmp/ntpald.sock"

func main() {
	var config string
	var query string
	var port int
	var timeout int64
	var inspect bool
	var socket string
	var noDaemon bool
	var ui bool
	flag.StringVar(&config, "config", defaultConfigPath, "Path to the ntpal config file.")
	flag.StringVar(&query, "query", "", "Address to query.")
	flag.StringVar(&query, "q", query, "Address to query.")
	flag.IntVar(&port, "port", 0, "Port to query. Defaults to the configured port.")
	flag.Int64Var(&timeout, "timeout", 0, "Query timeout in milliseconds. Defaults to the configured timeout.")
	flag.BoolVar(&inspect, "inspect", false, "Also report the server's stratum, reference and clock offset.")
	flag.StringVar(&socket, "socket", defaultSocketPath, "Path to the ntpald RPC socket.")
	flag.BoolVar(&noDaemon, "no-daemon", false, "Don't run ntpald as a daemon.")
	flag.BoolVar(&ui, "ui", false, "Show queries served by the running ntpald.")
	flag.Parse()

	client := ntpal.NewClient(loadConfig(config))

	if query != "" {
		overrides, err := queryOverrides(flag.CommandLine, query, port, timeout)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(2)
		}
		handleQueryCommand(client, overrides, inspect)
		return
	}

	if ui {
		handleNTPalUI(socket)
		return
	}

	if !noDaemon {
		d, err := daemonCtx.Reborn()
		if err != nil {
			if errors.Is(err, daemon.ErrWouldBlock) {
				killDaemon()
				fmt.Println("Successfully stopped ntpal daemon.")
				return
			}
			log.Fatal("Unable to run: ", err)
		}
		if d != nil {
			fmt.Printf("Daemon process (%s, %d) started successfully.\n", daemonName, d.Pid)
			return
		}
		defer daemonCtx.Release()

		log.Print("- - - - - - - - - - - - - - -")
		log.Print("daemon started", os.Args)
	}

	if err := rpc.Listen(socket, rpc.NewQueryService(client)); err != nil {
		log.Fatal("listen error: ", err)
	}
}

// A missing file at the default path means "use defaults"; any other
// problem with the config is fatal.
func loadConfig(path string) ntpal.Config {
	config, err := ntpal.ParseConfig(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
			return ntpal.DefaultConfig()
		}
		log.Fatal(err)
	}
	return config
}

// queryOverrides keeps only the flags given on the command line, so an
// explicit -port=0 or -timeout=0 is rejected rather than defaulted.
func queryOverrides(flags *flag.FlagSet, server string, port int, timeoutMillis int64) (ntpal.Overrides, error) {
	overrides := ntpal.Overrides{Server: server}

	var err error
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			overrides.Port = &port
		case "timeout":
			var timeout time.Duration
			if timeout, err = ntpal.MillisTimeout(timeoutMillis); err == nil {
				overrides.Timeout = &timeout
			}
		}
	})
	if err != nil {
		return overrides, &ntpal.QueryError{Kind: ntpal.ErrInvalidArgument, Server: server, Port: port, Err: err}
	}

	return overrides, nil
}
