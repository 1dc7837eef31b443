package backend

import (
	"flag"
	"strconv"
	"time"
)

var (
	SeekToCLIArg time.Duration = -1

	FlagPlay      = flag.Bool("play", false, "resume playback in the running bridge")
	FlagPause     = flag.Bool("pause", false, "pause playback in the running bridge")
	FlagPlayPause = flag.Bool("play-pause", false, "toggle play/pause state in the running bridge")
	FlagPrevious  = flag.Bool("previous", false, "skip to the previous track")
	FlagNext      = flag.Bool("next", false, "skip to the next track")
	FlagStatus    = flag.Bool("status", false, "print the running bridge's now playing state as JSON and exit")
	FlagQuit      = flag.Bool("quit", false, "ask the running bridge to exit")
	FlagCLI       = flag.String("cli", "", "path to the spotify CLI (default $PROJECT_DIR/spotify)")
	FlagPHP       = flag.String("php", "", "interpreter used to run the CLI (default $PHP_BIN or php from PATH)")
	FlagVerbose   = flag.Bool("v", false, "log dropped events and spawned commands")
	FlagVersion   = flag.Bool("version", false, "print app version and exit")
	FlagCheckUpd  = flag.Bool("check-update", false, "print the latest released version and exit")
	FlagHelp      = flag.Bool("help", false, "print command line options and exit")
)

func init() {
	flag.Func("seek-to", "seeks the running bridge to the given position in milliseconds", func(s string) error {
		v, err := strconv.ParseInt(s, 10, 64)
		SeekToCLIArg = time.Duration(v) * time.Millisecond
		return err
	})
}

// HaveClientOptions reports whether any flag was given that is handled
// by forwarding it to an already running bridge.
func HaveClientOptions() bool {
	return *FlagPlay || *FlagPause || *FlagPlayPause || *FlagPrevious ||
		*FlagNext || *FlagStatus || *FlagQuit || SeekToCLIArg >= 0
}

// CommandLineOptions returns the startup overrides given on the command line.
func CommandLineOptions() Options {
	return Options{
		CLIPath:     *FlagCLI,
		Interpreter: *FlagPHP,
		Verbose:     *FlagVerbose,
	}
}
