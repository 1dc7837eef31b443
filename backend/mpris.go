package backend

import (
	"encoding/base32"
	"errors"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/supersonic-app/nowplaying-bridge/backend/util"
)

const (
	dbusTrackIDPrefix = "/NowPlayingBridge/Track/"
	noTrackObjectPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"
)

var (
	_ types.OrgMprisMediaPlayer2Adapter       = (*MPRISHandler)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter = (*MPRISHandler)(nil)
)

var (
	errNotSupported = errors.New("not supported")
)

type MPRISHandler struct {
	// Function called if the bridge is requested to quit through MPRIS.
	// Should *asynchronously* start shutdown and return immediately.
	OnQuit func() error

	// Function to look up a local artwork URL for a remote one.
	ArtURLLookup func(artURL string) string

	mu           sync.Mutex
	connErr      error
	playerName   string
	curTrackPath string // empty for no track
	np           *NowPlayingManager
	cmds         RemoteCommandHandler
	s            *server.Server
	evt          *events.EventHandler
}

func NewMPRISHandler(playerName string, np *NowPlayingManager, cmds RemoteCommandHandler) *MPRISHandler {
	m := &MPRISHandler{playerName: playerName, np: np, cmds: cmds, connErr: errors.New("not started")}
	m.s = server.NewServer(playerName, m, m)
	m.evt = events.NewEventHandler(m.s)

	np.OnTrackChange(func(tr NowPlaying) {
		m.mu.Lock()
		if tr.URI != "" {
			m.curTrackPath = dbusTrackIDPrefix + encodeTrackId(tr.URI)
		} else if !tr.IsEmpty() {
			m.curTrackPath = dbusTrackIDPrefix + encodeTrackId(tr.Track+"\x00"+tr.Artist+"\x00"+tr.Album)
		} else {
			m.curTrackPath = ""
		}
		m.mu.Unlock()
		m.ifConnected(func() { m.evt.Player.OnTitle() })
	})
	np.OnPlaybackStateChange(func(s PlaybackState) {
		if s == Stopped {
			m.mu.Lock()
			m.curTrackPath = ""
			m.mu.Unlock()
		}
		m.ifConnected(func() { m.evt.Player.OnPlayPause() })
	})
	np.OnSeek(func(pos time.Duration) {
		m.ifConnected(func() { m.evt.Player.OnSeek(durationToMicroseconds(pos)) })
	})

	return m
}

// Starts listening for MPRIS events.
func (m *MPRISHandler) Start() {
	m.mu.Lock()
	m.connErr = nil
	m.mu.Unlock()
	go func() {
		// exits early with err if unable to establish D-Bus connection
		err := m.s.Listen()
		if err == nil {
			err = errors.New("stopped")
		}
		m.mu.Lock()
		m.connErr = err
		m.mu.Unlock()
	}()
}

// Stops listening for MPRIS events and releases any D-Bus resources.
func (m *MPRISHandler) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connErr == nil {
		m.s.Stop()
		m.connErr = errors.New("stopped")
	}
}

// ArtworkUpdated re-announces metadata once local artwork becomes available.
func (m *MPRISHandler) ArtworkUpdated() {
	m.ifConnected(func() { m.evt.Player.OnTitle() })
}

func (m *MPRISHandler) ifConnected(f func()) {
	m.mu.Lock()
	connected := m.connErr == nil
	m.mu.Unlock()
	if connected {
		f()
	}
}

// OrgMprisMediaPlayer2Adapter implementation

func (m *MPRISHandler) Identity() (string, error) {
	return m.playerName, nil
}

func (m *MPRISHandler) CanQuit() (bool, error) {
	return m.OnQuit != nil, nil
}

func (m *MPRISHandler) Quit() error {
	if m.OnQuit != nil {
		return m.OnQuit()
	}
	return errors.New("no quit handler added")
}

func (m *MPRISHandler) CanRaise() (bool, error) {
	return false, nil
}

func (m *MPRISHandler) Raise() error {
	return errNotSupported
}

func (m *MPRISHandler) HasTrackList() (bool, error) {
	return false, nil
}

func (m *MPRISHandler) SupportedUriSchemes() ([]string, error) {
	return nil, nil
}

func (m *MPRISHandler) SupportedMimeTypes() ([]string, error) {
	return nil, nil
}

// OrgMprisMediaPlayer2PlayerAdapter implementation

func (m *MPRISHandler) Next() error {
	return m.cmds.Next()
}

func (m *MPRISHandler) Previous() error {
	return m.cmds.Previous()
}

func (m *MPRISHandler) Pause() error {
	return m.cmds.Pause()
}

func (m *MPRISHandler) PlayPause() error {
	return m.cmds.PlayPause()
}

// The CLI has no stop command; pausing is the closest equivalent.
func (m *MPRISHandler) Stop() error {
	return m.cmds.Pause()
}

func (m *MPRISHandler) Play() error {
	return m.cmds.Play()
}

func (m *MPRISHandler) Seek(offset types.Microseconds) error {
	// MPRIS seek command is relative to current position
	pos := m.np.Position() + microsecondsToDuration(offset)
	return m.cmds.Seek(pos)
}

func (m *MPRISHandler) SetPosition(trackId string, position types.Microseconds) error {
	m.mu.Lock()
	cur := m.curTrackPath
	m.mu.Unlock()
	if cur != "" && cur == trackId {
		return m.cmds.Seek(microsecondsToDuration(position))
	}
	return nil
}

func (m *MPRISHandler) OpenUri(uri string) error {
	return errNotSupported
}

func (m *MPRISHandler) PlaybackStatus() (types.PlaybackStatus, error) {
	switch m.np.PlaybackState() {
	case Playing:
		return types.PlaybackStatusPlaying, nil
	case Paused:
		return types.PlaybackStatusPaused, nil
	case Stopped:
		return types.PlaybackStatusStopped, nil
	}
	return "", errors.New("unknown playback status")
}

func (m *MPRISHandler) Rate() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) SetRate(float64) error {
	return errNotSupported
}

func (m *MPRISHandler) Metadata() (types.Metadata, error) {
	m.mu.Lock()
	trackObjPath := noTrackObjectPath
	if m.curTrackPath != "" {
		trackObjPath = m.curTrackPath
	}
	m.mu.Unlock()

	var tr NowPlaying
	if m.np.PlaybackState() != Stopped {
		tr = m.np.NowPlaying()
	}
	var artURL string
	if tr.ArtURL != "" {
		artURL = tr.ArtURL
		if m.ArtURLLookup != nil {
			if local := m.ArtURLLookup(tr.ArtURL); local != "" {
				artURL = local
			}
		}
	}
	var artists []string
	if tr.Artist != "" {
		artists = []string{util.SanitizeText(tr.Artist)}
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(trackObjPath),
		Length:  durationToMicroseconds(time.Duration(tr.DurationMs) * time.Millisecond),
		Title:   util.SanitizeText(tr.Track),
		Album:   util.SanitizeText(tr.Album),
		Artist:  artists,
		ArtUrl:  artURL,
	}, nil
}

func (m *MPRISHandler) Volume() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) SetVolume(v float64) error {
	return errNotSupported
}

func (m *MPRISHandler) Position() (int64, error) {
	return int64(durationToMicroseconds(m.np.Position())), nil
}

func (m *MPRISHandler) MinimumRate() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) MaximumRate() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) CanGoNext() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanGoPrevious() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanPlay() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanPause() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanSeek() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanControl() (bool, error) {
	return true, nil
}

func microsecondsToDuration(m types.Microseconds) time.Duration {
	return time.Duration(m) * time.Microsecond
}

func durationToMicroseconds(d time.Duration) types.Microseconds {
	return types.Microseconds(d.Microseconds())
}

func encodeTrackId(id string) string {
	data := []byte(id)
	return base32.StdEncoding.WithPadding('0').EncodeToString(data)
}
