//go:build darwin

package backend

/**
* This file handles implementation of MacOS native controls via the native 'MediaPlayer' framework
**/

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Cocoa -framework MediaPlayer
#include "mpmediabridge.h"
*/
import (
	"C"
)

import (
	"context"
	"log"
	"time"
	"unsafe"

	"github.com/supersonic-app/nowplaying-bridge/backend/util"
)

// os_remote_command_callback is called by Objective-C when incoming OS media commands are received.
//
//export os_remote_command_callback
func os_remote_command_callback(command C.Command, value C.double) {
	switch command {
	case C.PLAY:
		mpMediaEventRecipient.OnCommandPlay()
	case C.PAUSE, C.STOP:
		mpMediaEventRecipient.OnCommandPause()
	case C.TOGGLE:
		mpMediaEventRecipient.OnCommandTogglePlayPause()
	case C.PREVIOUS_TRACK:
		mpMediaEventRecipient.OnCommandPreviousTrack()
	case C.NEXT_TRACK:
		mpMediaEventRecipient.OnCommandNextTrack()
	case C.SEEK:
		mpMediaEventRecipient.OnCommandSeek(float64(value))
	default:
		log.Printf("unknown OS command received: %v", command)
	}
}

// global recipient for Object-C callbacks from command center.
// This is global so that it can be called from 'os_remote_command_callback' to avoid passing Go pointers into C.
var mpMediaEventRecipient *MPMediaHandler

// InitMPMediaHandler creates a new MPMediaHandler and sets it as the current recipient
// for incoming system events.
func InitMPMediaHandler(np *NowPlayingManager, cmds RemoteCommandHandler, artPathLookup func(string) string) (*MPMediaHandler, error) {
	mp := &MPMediaHandler{
		np:            np,
		cmds:          cmds,
		artPathLookup: artPathLookup,
	}

	C.init_os_application()

	// register remote commands and set callback target
	mpMediaEventRecipient = mp
	C.register_os_remote_commands()

	np.OnTrackChange(func(track NowPlaying) {
		mp.updateMetadata(track)
	})

	np.OnPlaybackStateChange(func(state PlaybackState) {
		switch state {
		case Playing:
			C.set_os_playback_state_playing()
			mp.updatePosition(state)
		case Paused:
			C.set_os_playback_state_paused()
			mp.updatePosition(state)
		case Stopped:
			C.set_os_playback_state_stopped()
		}
	})

	np.OnSeek(func(time.Duration) {
		mp.updatePosition(np.PlaybackState())
	})

	return mp, nil
}

// ArtworkUpdated re-publishes the current track so newly cached artwork is shown.
func (mp *MPMediaHandler) ArtworkUpdated() {
	if mp.np.PlaybackState() == Stopped {
		return
	}
	mp.updateMetadata(mp.np.NowPlaying())
}

// RunEventPump services the main run loop in short slices until ctx is
// done. Must be called from the main thread.
func RunEventPump(ctx context.Context) {
	for ctx.Err() == nil {
		C.run_os_main_loop_slice(C.double(eventPumpSlice.Seconds()))
	}
}

func (mp *MPMediaHandler) updateMetadata(track NowPlaying) {
	var artPath string
	if track.ArtURL != "" && mp.artPathLookup != nil {
		artPath = mp.artPathLookup(track.ArtURL)
	}

	cTitle := C.CString(util.SanitizeText(track.Track))
	defer C.free(unsafe.Pointer(cTitle))

	cArtist := C.CString(util.SanitizeText(track.Artist))
	defer C.free(unsafe.Pointer(cArtist))

	cAlbum := C.CString(util.SanitizeText(track.Album))
	defer C.free(unsafe.Pointer(cAlbum))

	cArtPath := C.CString(artPath)
	defer C.free(unsafe.Pointer(cArtPath))

	duration := C.double((time.Duration(track.DurationMs) * time.Millisecond).Seconds())
	position := C.double(mp.np.Position().Seconds())

	C.set_os_now_playing_info(cTitle, cArtist, cAlbum, cArtPath, duration, position, playbackRate(track.IsPlaying))
}

func (mp *MPMediaHandler) updatePosition(state PlaybackState) {
	C.update_os_now_playing_info_position(C.double(mp.np.Position().Seconds()), playbackRate(state == Playing))
}

func playbackRate(playing bool) C.double {
	if playing {
		return 1
	}
	return 0
}

/**
* Handle incoming OS commands.
**/

// MPMediaHandler instance received OS command 'pause'
func (mp *MPMediaHandler) OnCommandPause() {
	if mp == nil || mp.cmds == nil {
		return
	}
	mp.cmds.Pause()
}

// MPMediaHandler instance received OS command 'play'
func (mp *MPMediaHandler) OnCommandPlay() {
	if mp == nil || mp.cmds == nil {
		return
	}
	mp.cmds.Play()
}

// MPMediaHandler instance received OS command 'toggle'
func (mp *MPMediaHandler) OnCommandTogglePlayPause() {
	if mp == nil || mp.cmds == nil {
		return
	}
	mp.cmds.PlayPause()
}

// MPMediaHandler instance received OS command 'next track'
func (mp *MPMediaHandler) OnCommandNextTrack() {
	if mp == nil || mp.cmds == nil {
		return
	}
	mp.cmds.Next()
}

// MPMediaHandler instance received OS command 'previous track'
func (mp *MPMediaHandler) OnCommandPreviousTrack() {
	if mp == nil || mp.cmds == nil {
		return
	}
	mp.cmds.Previous()
}

// MPMediaHandler instance received OS command to 'seek'
func (mp *MPMediaHandler) OnCommandSeek(positionSeconds float64) {
	if mp == nil || mp.cmds == nil {
		return
	}
	mp.cmds.Seek(time.Duration(positionSeconds * float64(time.Second)))
}
