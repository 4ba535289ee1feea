//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package server

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

func listenControl(opts ListenOptions) func(network, address string, c syscall.RawConn) error {
	if !opts.ReuseAddress && !opts.ReusePort {
		return nil
	}

	return func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			if opts.ReuseAddress {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					sockErr = fmt.Errorf("SO_REUSEADDR: %w", err)
					return
				}
			}
			if opts.ReusePort {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					sockErr = fmt.Errorf("SO_REUSEPORT: %w", err)
				}
			}
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}
