package backend

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/supersonic-app/nowplaying-bridge/backend/util"
)

const (
	EventTrackChanged         = "track_changed"
	EventPlaybackStateChanged = "playback_state_changed"
	EventPlaybackStopped      = "playback_stopped"
)

// The playback state published to the OS (Stopped, Paused, or Playing).
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Paused
	Playing
)

func (p PlaybackState) String() string {
	switch p {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Event is one line of the `spotify watch --json` stream.
// Optional fields are pointers so that an absent key can be told
// apart from a zero value.
type Event struct {
	Type        string `json:"type"`
	Track       string `json:"track,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	IsPlaying   *bool  `json:"is_playing,omitempty"`
	URI         string `json:"uri,omitempty"`
	AlbumArtURL string `json:"album_art_url,omitempty"`
	ProgressMs  *int64 `json:"progress_ms,omitempty"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

// UnmarshalJSON decodes each field on its own, so a value of an
// unexpected type costs only that field and not the whole event.
// An explicit null is_playing decodes as not playing.
func (e *Event) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*e = Event{}
	decodeString(fields, "type", &e.Type)
	decodeString(fields, "track", &e.Track)
	decodeString(fields, "artist", &e.Artist)
	decodeString(fields, "album", &e.Album)
	decodeString(fields, "uri", &e.URI)
	decodeString(fields, "album_art_url", &e.AlbumArtURL)
	if raw, ok := fields["is_playing"]; ok {
		var playing bool
		if json.Unmarshal(raw, &playing) == nil {
			e.IsPlaying = &playing
		}
	}
	if ms, ok := decodeMillis(fields, "progress_ms"); ok {
		e.ProgressMs = &ms
	}
	e.DurationMs, _ = decodeMillis(fields, "duration_ms")
	return nil
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string) {
	if raw, ok := fields[key]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			*dst = s
		}
	}
}

// decodeMillis accepts integers, fractional numbers and numeric strings.
func decodeMillis(fields map[string]json.RawMessage, key string) (int64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// NowPlaying is the last known track and playback flag.
// The zero value means nothing is playing.
type NowPlaying struct {
	Track      string `json:"track"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	IsPlaying  bool   `json:"is_playing"`
	URI        string `json:"uri,omitempty"`
	ArtURL     string `json:"album_art_url,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

func (n NowPlaying) IsEmpty() bool {
	return n == NowPlaying{}
}

// NowPlayingManager owns the current NowPlaying record.
// HandleEvent is the only writer; everything else reads copies.
type NowPlayingManager struct {
	mu       sync.RWMutex
	current  NowPlaying
	state    PlaybackState
	position util.Stopwatch

	cbMu                  sync.Mutex
	onTrackChange         []func(NowPlaying)
	onPlaybackStateChange []func(PlaybackState)
	onSeek                []func(time.Duration)
}

func NewNowPlayingManager() *NowPlayingManager {
	return &NowPlayingManager{}
}

// OnTrackChange registers a callback invoked with the new record
// whenever a track_changed event replaces the current one.
func (n *NowPlayingManager) OnTrackChange(cb func(NowPlaying)) {
	n.cbMu.Lock()
	defer n.cbMu.Unlock()
	n.onTrackChange = append(n.onTrackChange, cb)
}

// OnPlaybackStateChange registers a callback invoked whenever the
// playback state is (re)published, including after a track change.
func (n *NowPlayingManager) OnPlaybackStateChange(cb func(PlaybackState)) {
	n.cbMu.Lock()
	defer n.cbMu.Unlock()
	n.onPlaybackStateChange = append(n.onPlaybackStateChange, cb)
}

// OnSeek registers a callback invoked with the new position after SetPosition.
func (n *NowPlayingManager) OnSeek(cb func(time.Duration)) {
	n.cbMu.Lock()
	defer n.cbMu.Unlock()
	n.onSeek = append(n.onSeek, cb)
}

func (n *NowPlayingManager) NowPlaying() NowPlaying {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

func (n *NowPlayingManager) IsPlaying() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current.IsPlaying
}

func (n *NowPlayingManager) PlaybackState() PlaybackState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Position returns the interpolated playback position of the current track.
func (n *NowPlayingManager) Position() time.Duration {
	n.mu.RLock()
	dur := time.Duration(n.current.DurationMs) * time.Millisecond
	n.mu.RUnlock()

	pos := n.position.Elapsed()
	if dur > 0 && pos > dur {
		pos = dur
	}
	return pos
}

// SetPosition moves the local position without waiting for the next
// progress report.
func (n *NowPlayingManager) SetPosition(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	n.position.SetElapsed(pos)
	n.cbMu.Lock()
	cbs := n.onSeek
	n.cbMu.Unlock()
	for _, cb := range cbs {
		cb(pos)
	}
}

// HandleEvent applies one event to the current record and notifies
// subscribers. It returns false for unrecognized event types, which
// leave the record untouched.
func (n *NowPlayingManager) HandleEvent(e Event) bool {
	switch e.Type {
	case EventTrackChanged:
		np := NowPlaying{
			Track:      e.Track,
			Artist:     e.Artist,
			Album:      e.Album,
			IsPlaying:  true,
			URI:        e.URI,
			ArtURL:     e.AlbumArtURL,
			DurationMs: e.DurationMs,
		}
		if e.IsPlaying != nil {
			np.IsPlaying = *e.IsPlaying
		}
		var progress time.Duration
		if e.ProgressMs != nil {
			progress = time.Duration(*e.ProgressMs) * time.Millisecond
		}

		n.mu.Lock()
		n.current = np
		n.state = stateFor(np.IsPlaying)
		n.position.Reset()
		n.position.SetElapsed(progress)
		if np.IsPlaying {
			n.position.Start()
		}
		n.mu.Unlock()

		n.publishTrack(np)
		n.publishState(stateFor(np.IsPlaying))
	case EventPlaybackStateChanged:
		playing := e.IsPlaying != nil && *e.IsPlaying

		n.mu.Lock()
		n.current.IsPlaying = playing
		n.state = stateFor(playing)
		if e.ProgressMs != nil {
			n.position.SetElapsed(time.Duration(*e.ProgressMs) * time.Millisecond)
		}
		if playing {
			n.position.Start()
		} else {
			n.position.Stop()
		}
		n.mu.Unlock()

		n.publishState(stateFor(playing))
	case EventPlaybackStopped:
		n.mu.Lock()
		n.current = NowPlaying{}
		n.state = Stopped
		n.position.Reset()
		n.mu.Unlock()

		n.publishState(Stopped)
	default:
		return false
	}
	return true
}

func (n *NowPlayingManager) publishTrack(np NowPlaying) {
	n.cbMu.Lock()
	cbs := n.onTrackChange
	n.cbMu.Unlock()
	for _, cb := range cbs {
		cb(np)
	}
}

func (n *NowPlayingManager) publishState(s PlaybackState) {
	n.cbMu.Lock()
	cbs := n.onPlaybackStateChange
	n.cbMu.Unlock()
	for _, cb := range cbs {
		cb(s)
	}
}

func stateFor(playing bool) PlaybackState {
	if playing {
		return Playing
	}
	return Paused
}
