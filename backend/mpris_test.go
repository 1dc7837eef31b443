package backend

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"
)

type fakeRemote struct {
	calls []string
	seeks []time.Duration
}

func (f *fakeRemote) Play() error      { f.calls = append(f.calls, "play"); return nil }
func (f *fakeRemote) Pause() error     { f.calls = append(f.calls, "pause"); return nil }
func (f *fakeRemote) PlayPause() error { f.calls = append(f.calls, "playpause"); return nil }
func (f *fakeRemote) Next() error      { f.calls = append(f.calls, "next"); return nil }
func (f *fakeRemote) Previous() error  { f.calls = append(f.calls, "previous"); return nil }

func (f *fakeRemote) Seek(pos time.Duration) error {
	f.calls = append(f.calls, "seek")
	f.seeks = append(f.seeks, pos)
	return nil
}

func TestMPRISMetadata(t *testing.T) {
	n := NewNowPlayingManager()
	m := NewMPRISHandler("Bridge", n, &fakeRemote{})
	m.ArtURLLookup = func(u string) string { return "file:///cache/" + u[strings.LastIndex(u, "/")+1:] }

	md, _ := m.Metadata()
	if md.TrackId != noTrackObjectPath || md.Title != "" {
		t.Errorf("empty metadata = %+v", md)
	}

	n.HandleEvent(Event{
		Type:        EventTrackChanged,
		Track:       "Song",
		Artist:      "Artist",
		Album:       "Album",
		URI:         "spotify:track:123",
		AlbumArtURL: "https://i.scdn.co/image/abc",
		DurationMs:  180_000,
	})
	md, _ = m.Metadata()
	if md.Title != "Song" || md.Album != "Album" || !reflect.DeepEqual(md.Artist, []string{"Artist"}) {
		t.Errorf("metadata = %+v", md)
	}
	if md.Length != types.Microseconds(180_000_000) {
		t.Errorf("Length = %d", md.Length)
	}
	if md.ArtUrl != "file:///cache/abc" {
		t.Errorf("ArtUrl = %q", md.ArtUrl)
	}
	wantID := dbusTrackIDPrefix + encodeTrackId("spotify:track:123")
	if string(md.TrackId) != wantID {
		t.Errorf("TrackId = %q, want %q", md.TrackId, wantID)
	}

	n.HandleEvent(Event{Type: EventPlaybackStopped})
	md, _ = m.Metadata()
	if md.TrackId != noTrackObjectPath || md.Title != "" {
		t.Errorf("metadata after stop = %+v", md)
	}
}

func TestMPRISTrackIdWithoutURI(t *testing.T) {
	n := NewNowPlayingManager()
	m := NewMPRISHandler("Bridge", n, &fakeRemote{})

	n.HandleEvent(trackChanged("A", "B", "C"))
	md1, _ := m.Metadata()
	n.HandleEvent(trackChanged("A", "B", "D"))
	md2, _ := m.Metadata()
	if md1.TrackId == noTrackObjectPath || md1.TrackId == md2.TrackId {
		t.Errorf("track ids %q and %q should be distinct and set", md1.TrackId, md2.TrackId)
	}
	// base32 with '0' padding keeps object paths valid
	if strings.ContainsAny(string(md1.TrackId), "=+") {
		t.Errorf("invalid object path %q", md1.TrackId)
	}
}

func TestMPRISPlaybackStatus(t *testing.T) {
	n := NewNowPlayingManager()
	m := NewMPRISHandler("Bridge", n, &fakeRemote{})

	tests := []struct {
		event Event
		want  types.PlaybackStatus
	}{
		{trackChanged("A", "B", "C"), types.PlaybackStatusPlaying},
		{Event{Type: EventPlaybackStateChanged, IsPlaying: boolPtr(false)}, types.PlaybackStatusPaused},
		{Event{Type: EventPlaybackStateChanged, IsPlaying: boolPtr(true)}, types.PlaybackStatusPlaying},
		{Event{Type: EventPlaybackStopped}, types.PlaybackStatusStopped},
	}
	for _, tt := range tests {
		n.HandleEvent(tt.event)
		if got, _ := m.PlaybackStatus(); got != tt.want {
			t.Errorf("after %s: PlaybackStatus() = %q, want %q", tt.event.Type, got, tt.want)
		}
	}
}

func TestMPRISCommands(t *testing.T) {
	n := NewNowPlayingManager()
	r := &fakeRemote{}
	m := NewMPRISHandler("Bridge", n, r)

	m.Play()
	m.Pause()
	m.PlayPause()
	m.Stop()
	m.Next()
	m.Previous()
	want := []string{"play", "pause", "playpause", "pause", "next", "previous"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("calls = %v, want %v", r.calls, want)
	}
	if err := m.Raise(); err == nil {
		t.Error("Raise should not be supported")
	}
}

func TestMPRISSeek(t *testing.T) {
	n := NewNowPlayingManager()
	r := &fakeRemote{}
	m := NewMPRISHandler("Bridge", n, r)
	e := Event{Type: EventTrackChanged, Track: "A", URI: "spotify:track:1", IsPlaying: boolPtr(false), ProgressMs: int64Ptr(10_000), DurationMs: 60_000}
	n.HandleEvent(e)

	// relative
	m.Seek(types.Microseconds(5_000_000))
	if len(r.seeks) != 1 || r.seeks[0] != 15*time.Second {
		t.Errorf("relative seek = %v, want [15s]", r.seeks)
	}

	// absolute, wrong track
	m.SetPosition("/NowPlayingBridge/Track/OTHER", types.Microseconds(30_000_000))
	if len(r.seeks) != 1 {
		t.Errorf("SetPosition with stale track id seeked: %v", r.seeks)
	}

	md, _ := m.Metadata()
	m.SetPosition(string(md.TrackId), types.Microseconds(30_000_000))
	if len(r.seeks) != 2 || r.seeks[1] != 30*time.Second {
		t.Errorf("absolute seek = %v, want [15s 30s]", r.seeks)
	}

	if pos, _ := m.Position(); pos != 10_000_000 {
		t.Errorf("Position() = %d, want 10000000", pos)
	}
}

func TestMPRISQuit(t *testing.T) {
	n := NewNowPlayingManager()
	m := NewMPRISHandler("Bridge", n, &fakeRemote{})
	if ok, _ := m.CanQuit(); ok {
		t.Error("CanQuit without handler")
	}
	quit := false
	m.OnQuit = func() error { quit = true; return nil }
	if ok, _ := m.CanQuit(); !ok {
		t.Error("CanQuit with handler")
	}
	m.Quit()
	if !quit {
		t.Error("OnQuit not called")
	}
	if id, _ := m.Identity(); id != "Bridge" {
		t.Errorf("Identity() = %q", id)
	}
}
