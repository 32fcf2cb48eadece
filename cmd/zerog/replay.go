package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/swz-git/zero-g-script/agent"
	"github.com/swz-git/zero-g-script/recording"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a recorded session and report ticks where the commands differ",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(_ *cobra.Command, args []string) error {
	s, err := loadSettings(false)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(s)
	if err != nil {
		return err
	}
	defer closeLog()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := recording.NewReader(f)
	if err != nil {
		return err
	}
	h := r.Header()
	log.Infof("replaying session %v of %v recorded at %v", h.SessionID, h.AgentID, h.StartedAt.Format("2006-01-02 15:04:05"))

	res, err := recording.Replay(r, agent.New(log, s.AgentOptions()))
	if err != nil {
		return err
	}
	for _, d := range res.Divergences {
		log.Warnf("divergence at %.3fs: recorded %d commands, replayed %d", d.Elapsed, d.Recorded, d.Replayed)
	}
	log.Infof("replayed %d ticks producing %d commands", res.Ticks, res.Commands)
	if len(res.Divergences) > 0 {
		return fmt.Errorf("%d of %d ticks diverged from the recording", len(res.Divergences), res.Ticks)
	}
	return nil
}
