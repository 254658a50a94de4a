//go:build windows

// FILE: lixenwraith/crashlog/unwind/unwind_windows.go
package unwind

import "golang.org/x/sys/windows"

// unresolvedCode marks a frame outside any module with symbols
const unresolvedCode = windows.ERROR_MOD_NOT_FOUND
