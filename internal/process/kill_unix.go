//go:build !windows

// Package process terminates browser process trees left behind by the renderer.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// Chrome's helper processes down with it.
func KillProcessGroup(pid int) {
	// Best effort; launcher.Kill() runs afterwards as a fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
