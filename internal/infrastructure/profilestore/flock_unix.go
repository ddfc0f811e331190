//go:build unix

package profilestore

import (
	"os"
	"syscall"
)

const flockSupported = true

func tryFlock(fh *os.File) (bool, error) {
	err := syscall.Flock(int(fh.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if err == syscall.EWOULDBLOCK {
		return false, nil
	}
	return false, Error.Wrap(err)
}
