// Package ipc provides the local control channel between the clipkeep daemon
// and its collaborators (the CLI, UI shells).
//
// The channel carries the newline-delimited JSON protocol from package
// message over a Unix domain socket, or a named pipe on Windows. The daemon
// listens; collaborators dial one connection per request.
package ipc

import (
	"net"
	"os"
	"time"
)

const dialTimeout = 2 * time.Second

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux / macOS: $XDG_RUNTIME_DIR/clipkeep.sock, else $TMPDIR/clipkeep.sock
//     (override with $CLIPKEEP_SOCKET)
//   - Windows:       \\.\pipe\clipkeep
func SocketPath() string {
	if s := os.Getenv("CLIPKEEP_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC socket path.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the daemon's IPC socket.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
