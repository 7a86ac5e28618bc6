//go:build windows

package activate

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

const (
	mouseeventfLeftDown = 0x0002
	mouseeventfLeftUp   = 0x0004
)

var (
	user32       = windows.NewLazySystemDLL("user32.dll")
	setCursorPos = user32.NewProc("SetCursorPos")
	mouseEvent   = user32.NewProc("mouse_event")
)

func click(x, y int, delay time.Duration) error {
	if r, _, err := setCursorPos.Call(uintptr(x), uintptr(y)); r == 0 {
		return fmt.Errorf("SetCursorPos(%d, %d): %w", x, y, err)
	}
	_, _, _ = mouseEvent.Call(mouseeventfLeftDown, 0, 0, 0, 0)
	time.Sleep(delay)
	_, _, _ = mouseEvent.Call(mouseeventfLeftUp, 0, 0, 0, 0)
	return nil
}
