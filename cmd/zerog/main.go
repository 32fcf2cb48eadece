package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/swz-git/zero-g-script/settings"
)

var settingsPath string

// The following program connects to a match host and applies zero gravity after every kickoff, while
// keeping grounded cars stuck to the surface they drive on.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "zerog",
		Short:        "Zero gravity after every kickoff, with sticky wheels",
		SilenceUsage: true,
		RunE:         runAgent,
	}
	root.PersistentFlags().StringVar(&settingsPath, "settings", settings.DefaultPath, "path of the settings file")
	root.AddCommand(runCmd, replayCmd, settingsCmd)
	return root
}

// loadSettings loads the settings file, creating it first if create is true, and applies the
// environment on top of it.
func loadSettings(create bool) (settings.Settings, error) {
	if err := settings.LoadEnv(); err != nil {
		return settings.Settings{}, fmt.Errorf("load .env: %w", err)
	}

	var (
		s   settings.Settings
		err error
	)
	if create {
		s, err = settings.LoadOrCreate(settingsPath)
	} else if _, statErr := os.Stat(settingsPath); os.IsNotExist(statErr) {
		s = settings.DefaultSettings()
	} else {
		s, err = settings.Load(settingsPath)
	}
	if err != nil {
		return settings.Settings{}, err
	}

	s.ApplyEnv(os.LookupEnv)
	if err := s.Validate(); err != nil {
		return settings.Settings{}, fmt.Errorf("invalid settings in %v: %w", settingsPath, err)
	}
	return s, nil
}

// newLogger returns a logger as configured in the settings, and a function closing the log file if
// one was opened.
func newLogger(s settings.Settings) (*logrus.Logger, func(), error) {
	level, err := logrus.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true}
	log.Level = level

	if s.Log.File == "" {
		return log, func() {}, nil
	}
	f, err := os.OpenFile(s.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:     false,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	log.SetOutput(f)
	return log, func() { _ = f.Close() }, nil
}

// initSentry enables error reporting if a DSN is configured. The function returned flushes pending
// reports.
func initSentry(s settings.Settings, log logrus.FieldLogger) func() {
	if s.Sentry.DSN == "" {
		return func() {}
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: s.Sentry.DSN}); err != nil {
		log.Errorf("unable to initialise sentry: %v", err)
		return func() {}
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("agent_id", s.Connection.AgentID)
	})
	return func() { sentry.Flush(time.Second * 2) }
}

// startStatsView serves runtime charts on localhost:8080 if PPROF_ENABLED is set.
func startStatsView() func() {
	if os.Getenv("PPROF_ENABLED") == "" {
		return func() {}
	}
	// set configurations before calling `statsview.New()` method
	viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr("localhost:8080"))

	mgr := statsview.New()
	go mgr.Start()
	return mgr.Stop
}
