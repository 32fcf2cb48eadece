package settings

import (
	"errors"
	"io/fs"
	"net"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override values from the settings file.
const (
	EnvServerIP   = "RLBOT_SERVER_IP"
	EnvServerPort = "RLBOT_SERVER_PORT"
	EnvAgentID    = "RLBOT_AGENT_ID"
	EnvSentryDSN  = "ZEROG_SENTRY_DSN"
)

// LoadEnv loads environment variables from the .env files passed, or from ".env" in the working
// directory if none are passed. Missing files are ignored and variables that are already set are
// never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides the connection and sentry settings with the environment variables that are set.
// lookup is usually os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	host, port, err := net.SplitHostPort(s.Connection.Address)
	if err != nil {
		host, port = s.Connection.Address, ""
	}
	ip, hasIP := lookup(EnvServerIP)
	p, hasPort := lookup(EnvServerPort)
	if hasIP && ip != "" {
		host = ip
	}
	if hasPort && p != "" {
		port = p
	}
	if (hasIP && ip != "") || (hasPort && p != "") {
		s.Connection.Address = net.JoinHostPort(host, port)
	}

	if id, ok := lookup(EnvAgentID); ok && id != "" {
		s.Connection.AgentID = id
	}
	if dsn, ok := lookup(EnvSentryDSN); ok && dsn != "" {
		s.Sentry.DSN = dsn
	}
}
