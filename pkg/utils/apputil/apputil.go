// Package apputil provides small file-existence and directory-creation
// helpers used by configuration and storage setup.
package apputil

import (
	"os"
	"path/filepath"

	"aether.dev/pkg/utils/chk"
)

// EnsureDir creates the parent directory of fileName, and any missing
// parents, if it does not already exist.
func EnsureDir(fileName string) (err error) {
	dirName := filepath.Dir(fileName)
	if _, err = os.Stat(dirName); err != nil {
		err = os.MkdirAll(dirName, os.ModePerm)
		if chk.E(err) {
			return
		}
		return nil
	}
	return nil
}

// FileExists reports whether the named file or directory exists.
func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
