//go:build !unix

package profilestore

import "os"

const flockSupported = false

func tryFlock(fh *os.File) (bool, error) {
	return true, nil
}
