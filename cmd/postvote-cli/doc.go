// Package main provides the entry point for postvote-cli.
//
// postvote-cli registers accounts, logs in, creates posts and casts votes
// against a running postvote-server:
//
//	postvote-cli user register --email a@example.com --password secret --save
//	postvote-cli post create --title "hello"
//	postvote-cli post vote POST_ID up
package main
