package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/slipway-ci/slipway-cmd/pkg/buildfile"
)

func parseCurrentDir(dirArg string) (string, error) {
	if dirArg == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(dirArg)
	if err != nil {
		return "", err
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !stat.IsDir() {
		dir, file := filepath.Split(abs)
		if file == buildfile.FileName {
			return dir, nil
		}
		return "", fmt.Errorf("path is neither a dir nor a %s file: %s", buildfile.FileName, abs)
	}
	stat, err = os.Stat(filepath.Join(abs, buildfile.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("missing %s file in dir: %s", buildfile.FileName, abs)
		}
		return "", err
	}
	return abs, nil
}

func handleCancelSignals(f func()) {
	waitForCancelSignal()
	log.Info().WithDuration("gracePeriod", cancelGracePeriod).Message("Cancelling build. Press ^C again to force quit.")
	go func() {
		waitForCancelSignal()
		log.Warn().Message("Received second interrupt. Force quitting now.")
		os.Exit(2)
	}()
	f()
}

func waitForCancelSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	<-ch
	signal.Stop(ch)
}
