//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path"
	"runtime"
)

// socketPath is initialized based on platform conventions:
//   - macOS: ~/Library/Caches/nowplaying-bridge/nowplaying-bridge.sock
//   - Linux/Unix: $XDG_RUNTIME_DIR/nowplaying-bridge.sock
//
// with /tmp/nowplaying-bridge-{uid}.sock as the fallback for both.
var socketPath = "/tmp/nowplaying-bridge.sock"

func init() {
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			socketPath = path.Join(home, "Library", "Caches", "nowplaying-bridge", "nowplaying-bridge.sock")
		} else if user, err := user.Current(); err == nil {
			socketPath = fmt.Sprintf("/tmp/nowplaying-bridge-%s.sock", user.Uid)
		}
	} else {
		if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
			socketPath = path.Join(runtime, "nowplaying-bridge.sock")
		} else if user, err := user.Current(); err == nil {
			socketPath = fmt.Sprintf("/tmp/nowplaying-bridge-%s.sock", user.Uid)
		}
	}
}

// Dial establishes a connection to the IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", socketPath)
}

// Listen creates a Unix domain socket listener at the configured path.
// A stale socket file left by a crashed instance is removed first;
// callers check for a live instance with Connect before listening.
func Listen() (net.Listener, error) {
	if err := os.MkdirAll(path.Dir(socketPath), 0700); err != nil {
		return nil, err
	}
	if _, err := os.Stat(socketPath); err == nil {
		os.Remove(socketPath)
	}
	return net.Listen("unix", socketPath)
}

// DestroyConn removes the Unix socket file from the filesystem.
func DestroyConn() error {
	return os.Remove(socketPath)
}
