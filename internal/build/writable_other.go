//go:build !unix

package build

import "os"

func writable(path string) error {
	_, err := os.Stat(path)
	return err
}
