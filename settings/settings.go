package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
	"github.com/swz-git/zero-g-script/agent"
	"github.com/swz-git/zero-g-script/game"
)

// DefaultPath is the settings file used when no other path is given.
const DefaultPath = "settings.toml"

// Settings contains everything that can be configured about the script.
type Settings struct {
	Connection struct {
		// Address is the host:port of the match host.
		Address string
		Path    string
		// AgentID identifies the script to the match host.
		AgentID string
		// Codec is either "json" or "msgpack".
		Codec string
	}
	Gravity struct {
		Enabled        bool
		Target         float32
		RepeatInterval float32
		RepeatDuration float32
		Console        []string
	}
	Sticky struct {
		Enabled bool
		Force   float32
	}
	Lift struct {
		Velocity float32
	}
	Timing struct {
		// DeltaTime is either "derived" or "fixed".
		DeltaTime    string
		TickRate     float32
		MaxDeltaTime float32
	}
	Recording struct {
		Enabled   bool
		Directory string
	}
	Log struct {
		Level string
		// File is the file logs are written to. Logs go to stdout if it is empty.
		File string
	}
	Sentry struct {
		DSN string
	}
	Stats struct {
		// Interval is the amount of ticks between two tick statistics log lines. Zero disables them.
		Interval int
	}
}

// DefaultSettings returns the settings the script runs with if no settings file exists.
func DefaultSettings() Settings {
	s := Settings{}
	s.Connection.Address = "127.0.0.1:23234"
	s.Connection.Path = "/"
	s.Connection.AgentID = "swz/zero-g-script"
	s.Connection.Codec = "json"

	s.Gravity.Enabled = true
	s.Gravity.Target = game.DefaultTargetGravity
	s.Gravity.RepeatInterval = game.DefaultRepeatInterval
	s.Gravity.RepeatDuration = game.DefaultRepeatDuration

	s.Sticky.Enabled = true
	s.Sticky.Force = game.DefaultStickyForce

	s.Timing.DeltaTime = agent.DeltaDerived.String()
	s.Timing.TickRate = game.DefaultTickRate
	s.Timing.MaxDeltaTime = game.DefaultMaxDeltaTime

	s.Recording.Directory = "recordings"
	s.Log.Level = logrus.InfoLevel.String()
	s.Stats.Interval = 1200
	return s
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("settings file already exists")
	}
	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed encoding default settings: %v", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed creating settings directory: %v", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating settings file: %v", err)
	}
	return nil
}

// Load will load the settings from your settings file, and return an error if the file does not exist.
// Keys missing from the file keep their default value.
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Settings{}, errors.New("settings file doesn't exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading settings: %v", err)
	}

	s := DefaultSettings()
	if err = toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("error decoding settings: %v", err)
	}
	if len(s.Gravity.Console) == 0 {
		s.Gravity.Console = nil
	}
	return s, nil
}

// LoadOrCreate loads the settings file at path, writing the default settings to it first if it does
// not exist yet.
func LoadOrCreate(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveDefault(path); err != nil {
			return Settings{}, err
		}
	}
	return Load(path)
}

// Validate checks that the settings can be used to run the script.
func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	positive := func(f float32) bool {
		return f > 0 && !math32.IsInf(f, 0) && !math32.IsNaN(f)
	}

	check(s.Connection.Address != "", "connection address must not be empty")
	check(s.Connection.AgentID != "", "connection agent id must not be empty")
	check(s.Connection.Codec == "json" || s.Connection.Codec == "msgpack", "unknown connection codec %q", s.Connection.Codec)

	check(!math32.IsNaN(s.Gravity.Target) && !math32.IsInf(s.Gravity.Target, 0), "gravity target must be finite")
	check(positive(s.Gravity.RepeatInterval), "gravity repeat interval must be positive, got %v", s.Gravity.RepeatInterval)
	check(positive(s.Gravity.RepeatDuration), "gravity repeat duration must be positive, got %v", s.Gravity.RepeatDuration)
	check(s.Sticky.Force >= 0 && !math32.IsInf(s.Sticky.Force, 0), "sticky force must be finite and not negative, got %v", s.Sticky.Force)
	check(!math32.IsNaN(s.Lift.Velocity) && !math32.IsInf(s.Lift.Velocity, 0), "lift velocity must be finite")

	if _, err := agent.ParseDeltaTimePolicy(s.Timing.DeltaTime); err != nil {
		errs = append(errs, err)
	}
	check(positive(s.Timing.TickRate), "tick rate must be positive, got %v", s.Timing.TickRate)
	check(!math32.IsNaN(s.Timing.MaxDeltaTime), "max delta time must be a number")

	check(!s.Recording.Enabled || s.Recording.Directory != "", "recording directory must not be empty when recording is enabled")
	if _, err := logrus.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	check(s.Stats.Interval >= 0, "stats interval must not be negative, got %d", s.Stats.Interval)
	return errors.Join(errs...)
}

// AgentOptions converts the settings to the options an agent.Agent is created with. Validate should
// be called first: an unknown delta time policy falls back to agent.DeltaDerived.
func (s Settings) AgentOptions() agent.Options {
	policy, _ := agent.ParseDeltaTimePolicy(s.Timing.DeltaTime)
	return agent.Options{
		Gravity:        s.Gravity.Enabled,
		TargetGravity:  s.Gravity.Target,
		RepeatInterval: s.Gravity.RepeatInterval,
		RepeatDuration: s.Gravity.RepeatDuration,
		Console:        append([]string(nil), s.Gravity.Console...),

		Sticky:      s.Sticky.Enabled,
		StickyForce: s.Sticky.Force,

		LiftVelocity: s.Lift.Velocity,

		DeltaTime:    policy,
		TickRate:     s.Timing.TickRate,
		MaxDeltaTime: s.Timing.MaxDeltaTime,
	}
}

// Endpoint returns the websocket URL of the match host.
func (s Settings) Endpoint() string {
	path := s.Connection.Path
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: s.Connection.Address, Path: path}
	return u.String()
}
