package backend

import (
	"log"
	"time"

	"github.com/supersonic-app/nowplaying-bridge/backend/util"
	"github.com/supersonic-app/nowplaying-bridge/backend/windows"
)

// SMTCHandler connects the Windows System Media Transport Controls to
// the bridge.
type SMTCHandler struct {
	smtc          *windows.SMTC
	np            *NowPlayingManager
	artPathLookup func(artURL string) string
}

// InitSMTCHandler initializes SMTC for the console window the bridge runs in.
func InitSMTCHandler(np *NowPlayingManager, cmds RemoteCommandHandler, artPathLookup func(string) string) (*SMTCHandler, error) {
	smtc, err := windows.InitSMTCForWindow(windows.ConsoleWindow())
	if err != nil {
		return nil, err
	}
	s := &SMTCHandler{smtc: smtc, np: np, artPathLookup: artPathLookup}

	smtc.OnButtonPressed(func(btn windows.SMTCButton) {
		switch btn {
		case windows.SMTCButtonPlay:
			cmds.Play()
		case windows.SMTCButtonPause, windows.SMTCButtonStop:
			cmds.Pause()
		case windows.SMTCButtonNext:
			cmds.Next()
		case windows.SMTCButtonPrevious:
			cmds.Previous()
		}
	})
	smtc.OnSeek(func(millis int) {
		cmds.Seek(time.Duration(millis) * time.Millisecond)
	})

	np.OnTrackChange(func(tr NowPlaying) {
		if err := smtc.SetEnabled(true); err != nil {
			log.Printf("error enabling SMTC: %v", err)
		}
		if err := smtc.UpdateMetadata(util.SanitizeText(tr.Track), util.SanitizeText(tr.Artist)); err != nil {
			log.Printf("error updating SMTC metadata: %v", err)
		}
		s.updateThumbnail(tr)
		s.updatePosition()
	})
	np.OnPlaybackStateChange(func(state PlaybackState) {
		var err error
		switch state {
		case Playing:
			err = smtc.UpdatePlaybackState(windows.SMTCPlaybackStatePlaying)
		case Paused:
			err = smtc.UpdatePlaybackState(windows.SMTCPlaybackStatePaused)
		case Stopped:
			err = smtc.UpdatePlaybackState(windows.SMTCPlaybackStateStopped)
		}
		if err != nil {
			log.Printf("error updating SMTC playback state: %v", err)
		}
		s.updatePosition()
	})
	np.OnSeek(func(time.Duration) {
		s.updatePosition()
	})

	return s, nil
}

// ArtworkUpdated pushes the current track's cached artwork as the thumbnail.
func (s *SMTCHandler) ArtworkUpdated() {
	s.updateThumbnail(s.np.NowPlaying())
}

func (s *SMTCHandler) Shutdown() {
	s.smtc.Shutdown()
}

func (s *SMTCHandler) updateThumbnail(tr NowPlaying) {
	if tr.ArtURL == "" || s.artPathLookup == nil {
		return
	}
	if p := s.artPathLookup(tr.ArtURL); p != "" {
		if err := s.smtc.SetThumbnail(p); err != nil {
			log.Printf("error setting SMTC thumbnail: %v", err)
		}
	}
}

func (s *SMTCHandler) updatePosition() {
	dur := s.np.NowPlaying().DurationMs
	if dur <= 0 {
		return
	}
	_ = s.smtc.UpdatePosition(int(s.np.Position().Milliseconds()), int(dur))
}
