package backend

import (
	"strconv"
	"time"
)

// CLI subcommands issued for each remote command.
var (
	cliResume   = []string{"resume"}
	cliPause    = []string{"pause"}
	cliNext     = []string{"skip"}
	cliPrevious = []string{"skip", "--previous"}
)

// CommandExecutor dispatches a CLI invocation without blocking.
// Failures are the executor's to log; they are never returned.
type CommandExecutor interface {
	Dispatch(args ...string)
}

// RemoteCommandHandler is the set of commands an OS media surface can deliver.
type RemoteCommandHandler interface {
	Play() error
	Pause() error
	PlayPause() error
	Next() error
	Previous() error
	Seek(pos time.Duration) error
}

var _ RemoteCommandHandler = (*CommandRelay)(nil)

// CommandRelay turns remote commands into CLI invocations.
// Every command reports success as soon as it has been dispatched.
type CommandRelay struct {
	np   *NowPlayingManager
	exec CommandExecutor
}

func NewCommandRelay(np *NowPlayingManager, exec CommandExecutor) *CommandRelay {
	return &CommandRelay{np: np, exec: exec}
}

func (c *CommandRelay) Play() error {
	c.exec.Dispatch(cliResume...)
	return nil
}

func (c *CommandRelay) Pause() error {
	c.exec.Dispatch(cliPause...)
	return nil
}

// PlayPause branches on the last reported playing flag, which may be
// stale if playback changed outside the event stream.
func (c *CommandRelay) PlayPause() error {
	if c.np.IsPlaying() {
		return c.Pause()
	}
	return c.Play()
}

func (c *CommandRelay) Next() error {
	c.exec.Dispatch(cliNext...)
	return nil
}

func (c *CommandRelay) Previous() error {
	c.exec.Dispatch(cliPrevious...)
	return nil
}

// Seek asks the CLI to seek to an absolute position and moves the local
// position immediately so the OS progress bar does not jump back.
func (c *CommandRelay) Seek(pos time.Duration) error {
	if pos < 0 {
		pos = 0
	}
	c.np.SetPosition(pos)
	c.exec.Dispatch("seek", strconv.FormatInt(pos.Milliseconds(), 10))
	return nil
}
