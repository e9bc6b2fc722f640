// Package localserver provides the local management socket.
//
// The server listens on a Unix domain socket and reads one command per
// line. Access is controlled by the socket's file permissions (0600), so
// no session is required:
//
//	status            version, storage backend and health, uptime, log level
//	loglevel [LEVEL]  show or change the log level
//	shutdown          start a graceful shutdown
//	quit              close the connection
//
// Replies are a single line: a JSON document for status, "ok ..." on
// success and "error: ..." otherwise.
package localserver
