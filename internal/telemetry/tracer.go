package telemetry

import (
	"context"
	"net"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for session spans.
const (
	AttrServer       = "server.name"
	AttrSessionID    = "session.id"
	AttrClientAddr   = "client.address"
	AttrClientPort   = "client.port"
	AttrBytesRead    = "session.bytes_read"
	AttrBytesWritten = "session.bytes_written"
	AttrErrorCode    = "error.code"
	AttrErrorClass   = "error.category"
)

// Span names.
const (
	SpanSessionAccept = "session.accept"
	SpanSessionClose  = "session.close"
	SpanAcceptError   = "server.accept_error"
)

// ClientAttributes splits a remote address into client.address/client.port.
func ClientAttributes(addr net.Addr) []attribute.KeyValue {
	if addr == nil {
		return nil
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return []attribute.KeyValue{attribute.String(AttrClientAddr, addr.String())}
	}
	attrs := []attribute.KeyValue{attribute.String(AttrClientAddr, host)}
	if p, err := strconv.Atoi(port); err == nil {
		attrs = append(attrs, attribute.Int(AttrClientPort, p))
	}
	return attrs
}

// StartSessionSpan starts a server-kind span describing one session event.
func StartSessionSpan(ctx context.Context, name, server, sessionID string, remote net.Addr) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrServer, server),
		attribute.String(AttrSessionID, sessionID),
	}
	attrs = append(attrs, ClientAttributes(remote)...)

	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}
