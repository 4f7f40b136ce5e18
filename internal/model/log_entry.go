package model

// LogEntry is an arbitrary JSON object posted to the log service.
// No schema is enforced; keys and values are stored as received.
type LogEntry map[string]any
