package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MatchesExtension reports whether the base name of path ends with ext. The
// comparison is case-sensitive; a name consisting only of the extension is not a
// match.
func MatchesExtension(path, ext string) bool {
	base := filepath.Base(path)
	return len(base) > len(ext) && strings.HasSuffix(base, ext)
}

// IsReadableDir checks that path exists, is a directory and its entries can be
// listed.
func IsReadableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// IsWritableDir checks that a file can be created inside dir by creating and
// removing a scratch file.
func IsWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	scratch, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return err
	}
	name := scratch.Name()
	scratch.Close()
	return os.Remove(name)
}

// WriteFileAtomic writes the output of fill to a temporary file next to dest and
// renames it into place. On any failure the temporary file is removed and dest is
// left untouched.
func WriteFileAtomic(dest string, fill func(f *os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()
	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}
