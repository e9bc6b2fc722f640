// Package command defines the postvote-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags and client setup
//   - user.go: account registration
//   - session.go: login, verification and the saved session
//   - post.go: posts and votes
//   - system.go: health and readiness checks
//
// Every command writes its result to the app's Writer in the format picked
// by --output.
package command
