//go:build windows

// File: internal/concurrency/pin_windows.go
// Author: momentics <momentics@gmail.com>

package concurrency

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var procSetThreadAffinityMask = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadAffinityMask")

// pinCurrentThread binds the calling OS thread to one CPU.
func pinCurrentThread(cpuID int) error {
	r, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), uintptr(1)<<uint(cpuID))
	if r == 0 {
		if err == syscall.Errno(0) {
			return nil
		}
		return err
	}
	return nil
}
