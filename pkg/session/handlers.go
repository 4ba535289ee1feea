package session

import (
	"fmt"
	"strings"
)

// Session modes understood by ReceiverFor.
const (
	ModeEcho    = "echo"
	ModeDiscard = "discard"
)

// Echo writes every received chunk back to the peer.
func Echo(s *TCPSession, data []byte) {
	_, _ = s.Send(data)
}

// Discard drops received bytes. They are still counted.
func Discard(*TCPSession, []byte) {}

// ReceiverFor returns the receive callback for a configured mode.
func ReceiverFor(mode string) (ReceiveFunc, error) {
	switch strings.ToLower(mode) {
	case ModeEcho, "":
		return Echo, nil
	case ModeDiscard:
		return Discard, nil
	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}
}
