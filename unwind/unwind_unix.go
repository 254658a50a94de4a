//go:build unix

// FILE: lixenwraith/crashlog/unwind/unwind_unix.go
package unwind

import "golang.org/x/sys/unix"

// unresolvedCode marks a frame with no symbol in the binary
const unresolvedCode = unix.ENOENT
