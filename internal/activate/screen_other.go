//go:build !windows

package activate

import "time"

func click(int, int, time.Duration) error {
	return ErrScreenUnsupported
}
