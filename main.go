// ABOUTME: Entry point for the FretCoach practice tool
// ABOUTME: Parses configuration, sets up logging and runs the TUI or headless loop
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/internal/app"
	"github.com/fretcoach/fretcoach/internal/config"
	"github.com/fretcoach/fretcoach/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	useTUI := !cfg.NoTUI

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	logrus.SetLevel(cfg.LogLevel)
	if useTUI {
		// TUI mode: log only to file
		logrus.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	application, err := app.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to create application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logrus.Errorf("Error closing application: %v", err)
		}
	}()

	if err := application.Start(); err != nil {
		logrus.Errorf("Startup error: %v", err)
	}

	if useTUI {
		prog, err := ui.Run(application)
		if err != nil {
			logrus.Fatalf("Failed to start TUI: %v", err)
		}
		if _, err := prog.Run(); err != nil {
			logrus.Errorf("TUI error: %v", err)
		}
		logrus.Info("Received quit signal from TUI")
		return
	}

	logrus.Info("TUI disabled - streaming logs")
	if err := application.ToggleMetronome(); err != nil {
		logrus.Fatalf("Failed to start metronome: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go statusLogLoop(application, done)

	<-sigChan
	close(done)
	logrus.Info("Shutdown signal received")
}

// statusLogLoop logs a status line whenever a new measure starts
func statusLogLoop(a *app.App, done <-chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	lastMeasure := 0
	for {
		select {
		case <-ticker.C:
			st := a.Status()
			if !st.Metronome.Playing || st.Metronome.Measure == lastMeasure {
				continue
			}
			lastMeasure = st.Metronome.Measure

			fields := logrus.Fields{
				"measure":   st.Metronome.Measure,
				"bpm":       st.Config.BPM(),
				"dropout":   st.Metronome.InDropout,
				"underruns": st.Underruns,
			}
			if st.HasReading {
				fields["note"] = st.Reading.String()
			}
			logrus.WithFields(fields).Info("Measure")

		case <-done:
			return
		}
	}
}
