//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package server

import "syscall"

// Socket reuse options are not supported on this platform; the runtime
// defaults apply.
func listenControl(ListenOptions) func(network, address string, c syscall.RawConn) error {
	return nil
}
