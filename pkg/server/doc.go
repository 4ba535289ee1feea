// Package server implements the connection-acceptance and session-lifecycle
// core of a TCP server.
//
// A Server owns one listening Acceptor, one reactor.Reactor driven by a single
// background goroutine, and a Registry of live sessions. Accept completions,
// the shutdown drain and work submitted through Post all run on that
// goroutine, serialized. Sessions serve their connection on their own
// goroutine and unregister themselves through UnregisterSession when they
// disconnect.
//
// Lifecycle:
//
//	srv, err := server.New(server.IPv4, 1111, server.Config[*session.TCPSession]{...})
//	srv.Start()          // returns immediately
//	...
//	srv.Stop()           // disconnects every session and joins the goroutine
//	srv.Close()          // releases the listener
//
// Hooks are plain function values; a nil hook is a no-op. Stop waits for
// disconnects already in progress elsewhere, so once it returns the registry
// is empty and no OnDisconnected for that run is still pending.
package server
