package backend

import (
	"errors"
	"time"
)

// slice of time the main run loop is pumped for between context checks
const eventPumpSlice = 100 * time.Millisecond

var errUnsupportedPlatform = errors.New("unsupported platform")

// MPMediaHandler is the handler for MacOS media controls and system events.
type MPMediaHandler struct {
	np            *NowPlayingManager
	cmds          RemoteCommandHandler
	artPathLookup func(artURL string) string
}
