// Package buildinfo exposes the version of the running binary.
//
// Release builds inject the values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/postvote-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/postvote-go/internal/infra/buildinfo.Commit=abc123"
//
// Without ldflags the module version and VCS revision recorded by the Go
// toolchain are used.
package buildinfo
