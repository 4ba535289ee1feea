package server

// MetricsRecorder receives session lifecycle events. A nil recorder
// disables collection.
type MetricsRecorder interface {
	RecordSessionConnected()
	RecordSessionDisconnected()
	RecordAcceptError(category string)
	RecordDispatchError()
	SetActiveSessions(count int)
}
