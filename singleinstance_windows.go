//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

// ensureSingleInstance holds a named mutex for the life of the process. The
// lock path is unused; the mutex name is global to the session.
func ensureSingleInstance(string) (func(), error) {
	name, err := windows.UTF16PtrFromString("Global\\TilefxSingleInstance")
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateMutex(nil, false, name)
	if err == windows.ERROR_ALREADY_EXISTS {
		_ = windows.CloseHandle(h)
		return nil, errAlreadyRunning
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = windows.CloseHandle(h) }, nil
}
