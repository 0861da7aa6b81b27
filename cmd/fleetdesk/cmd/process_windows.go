//go:build windows

package cmd

import (
	"os"

	"golang.org/x/sys/windows"
)

// gracefulSignals lists the shutdown signals the console traps. Windows
// delivers only os.Interrupt (Ctrl+C); there is no SIGTERM.
func gracefulSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// processIsAlive reports whether the console process behind the PID file
// is still running, by querying its exit code.
func processIsAlive(proc *os.Process) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(proc.Pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(handle)

	var exitCode uint32
	if err := windows.GetExitCodeProcess(handle, &exitCode); err != nil {
		return false
	}
	// 259 is STILL_ACTIVE.
	return exitCode == 259
}

// sendGracefulStop asks the console to shut down. Without SIGTERM the
// closest Windows has is TerminateProcess, which Kill wraps.
func sendGracefulStop(proc *os.Process) error {
	return proc.Kill()
}
