package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Server lifecycle
	KeyServer   = "server"   // Server instance name
	KeyAddress  = "address"  // Bound listener address
	KeyProtocol = "protocol" // ipv4, ipv6
	KeyState    = "state"    // Lifecycle or session state

	// Session & connection
	KeySessionID  = "session_id"
	KeyRemoteAddr = "remote_addr"
	KeyActive     = "active" // Number of live sessions
	KeyCount      = "count"

	// I/O
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"

	// Errors
	KeyError     = "error"
	KeyErrorCode = "error_code"
	KeyCategory  = "category"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyOperation  = "operation"
	KeyStore      = "store"
	KeyPort       = "port"
)

// Server returns a slog.Attr for the server name
func Server(name string) slog.Attr {
	return slog.String(KeyServer, name)
}

// SessionID returns a slog.Attr for a session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// RemoteAddr returns a slog.Attr for a peer address
func RemoteAddr(addr string) slog.Attr {
	return slog.String(KeyRemoteAddr, addr)
}

// Active returns a slog.Attr for the live session count
func Active(n int) slog.Attr {
	return slog.Int(KeyActive, n)
}

// Err returns a slog.Attr for an error; nil errors yield an empty attribute
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Category returns a slog.Attr for an error category
func Category(name string) slog.Attr {
	return slog.String(KeyCategory, name)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}
