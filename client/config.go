package client

// ServiceConfig identifies the Todo service under test and the credentials
// used for operations that require authorization. It is constructed once from
// command-line parameters and passed by value to every collaborator that
// needs it; there is deliberately no process-wide configuration state, so
// independent clients can point at different services within one process.
type ServiceConfig struct {
	// BaseURL is the root URL of the Todo HTTP API, e.g. "http://localhost:8080".
	BaseURL string

	// WSURL is the URL of the push-notification WebSocket endpoint,
	// e.g. "ws://localhost:4242/ws".
	WSURL string

	// User and Password are the basic-auth credentials accepted by the
	// service for DELETE operations.
	User     string
	Password string
}
