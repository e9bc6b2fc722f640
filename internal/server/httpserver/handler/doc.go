// Package handler provides HTTP request handlers for PostVote.
//
// Every JSON response uses the Response envelope. Domain errors are mapped to
// HTTP status codes from the last four digits of their code.
package handler
