package main

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/sevlyar/go-daemon"
)

const daemonName = "ntpald"

var daemonCtx = &daemon.Context{
	PidFileName: fmt.Sprintf("/var/tmp/%s.pid", daemonName),
	PidFilePerm: 0644,
	LogFileName: fmt.Sprintf("/var/tmp/%s.log", daemonName),
	LogFilePerm: 0640,
	WorkDir:     "./",
	Umask:       027,
	Args:        append([]string{daemonName}, os.Args[1:]...),
}

func killDaemon() {
	daemon, err := daemonCtx.Search()
	if err != nil {
		log.Fatalf("Error finding daemon: %v", err)
	}

	err = daemon.Signal(syscall.SIGTERM)
	if err != nil {
		log.Fatal("Couldn't stop ntpal daemon.")
	}
}
