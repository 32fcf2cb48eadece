package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/swz-git/zero-g-script/agent"
	"github.com/swz-git/zero-g-script/recording"
	"github.com/swz-git/zero-g-script/session"
	"github.com/swz-git/zero-g-script/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the match host and run until the match ends",
	Args:  cobra.NoArgs,
	RunE:  runAgent,
}

func runAgent(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(true)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(s)
	if err != nil {
		return err
	}
	defer closeLog()
	defer initSentry(s, log)()
	defer startStatsView()()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := transport.CodecByName(s.Connection.Codec)
	if err != nil {
		return err
	}
	conn, err := transport.Dial(ctx, transport.Config{
		URL:     s.Endpoint(),
		AgentID: s.Connection.AgentID,
		Codec:   codec,
	}, log)
	if err != nil {
		return err
	}

	cfg := session.Config{
		ID:            uuid.NewString(),
		AgentID:       s.Connection.AgentID,
		StatsInterval: s.Stats.Interval,
	}
	if s.Recording.Enabled {
		rec, path, err := recording.Create(s.Recording.Directory, recording.Header{
			AgentID:   s.Connection.AgentID,
			SessionID: cfg.ID,
			StartedAt: time.Now(),
			Codec:     codec.Name(),
		})
		if err != nil {
			_ = conn.Close()
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Errorf("error closing recording: %v", err)
			}
		}()
		cfg.Recorder = rec
		log.Infof("recording session to %v", path)
	}

	a := agent.New(log, s.AgentOptions())
	sess := session.New(log, a, conn, cfg)
	log.Infof("running as %v on %v (session %v)", s.Connection.AgentID, s.Endpoint(), sess.ID())
	if err := sess.Run(ctx); err != nil {
		return fmt.Errorf("session %v: %w", sess.ID(), err)
	}

	stats := sess.Stats()
	log.Debugf("session ended after %d ticks, %d kickoffs and %d commands", stats.Ticks, stats.Triggers, stats.Commands)
	log.Infof("Script with agent_id `%s` exited nicely", s.Connection.AgentID)
	return nil
}
