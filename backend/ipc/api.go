package ipc

import (
	"fmt"
	"time"
)

const (
	PingPath       = "/ping"
	NowPlayingPath = "/nowplaying"
	PlayPath       = "/transport/play"
	PausePath      = "/transport/pause"
	PlayPausePath  = "/transport/playpause"
	PreviousPath   = "/transport/previous"
	NextPath       = "/transport/next"
	SeekPath       = "/transport/seek" // ?ms=<position in milliseconds>
	EventsPath     = "/events"         // body: one playback event JSON object
	QuitPath       = "/quit"
)

type Response struct {
	Error string `json:"error"`
}

// NowPlaying is the body returned from NowPlayingPath.
type NowPlaying struct {
	State      string `json:"state"`
	Track      string `json:"track"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	URI        string `json:"uri,omitempty"`
	ArtURL     string `json:"album_art_url,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	PositionMs int64  `json:"position_ms"`
}

func SeekToPath(pos time.Duration) string {
	return fmt.Sprintf("%s?ms=%d", SeekPath, pos.Milliseconds())
}
