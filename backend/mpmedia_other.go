//go:build !darwin

package backend

import "context"

func InitMPMediaHandler(np *NowPlayingManager, cmds RemoteCommandHandler, artPathLookup func(string) string) (*MPMediaHandler, error) {
	// MPMediaHandler only supports macOS.
	return nil, errUnsupportedPlatform
}

func (mp *MPMediaHandler) ArtworkUpdated() {}

// RunEventPump blocks until ctx is done. Only macOS needs the main
// thread to service OS callbacks.
func RunEventPump(ctx context.Context) {
	<-ctx.Done()
}
