package fileutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	// ErrDestinationExists is returned when a transfer would overwrite a file.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrPermissionDenied wraps filesystem permission failures during a transfer.
	ErrPermissionDenied = errors.New("permission denied")
)

// TransferFile moves or copies src to dst, creating dst's directory. It never
// overwrites an existing destination.
func TransferFile(src, dst string, copyOnly bool) error {
	if src == dst {
		return nil
	}
	if _, err := os.Stat(dst); err == nil {
		return errors.Wrap(ErrDestinationExists, dst)
	}

	err := os.MkdirAll(filepath.Dir(dst), 0755)
	if err != nil {
		return classify(err)
	}

	if copyOnly {
		err = CopyFile(src, dst)
	} else {
		err = MoveFile(src, dst)
	}
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrPermission) {
		return errors.Wrap(ErrPermissionDenied, err.Error())
	}
	return err
}

// MoveFile safely moves a file from source to destination.
func MoveFile(src, dst string) error {
	// Rename only works within one filesystem.
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	err = CopyFile(src, dst)
	if err != nil {
		return errors.WithStack(err)
	}

	// Remove the source file only after successful copy
	err = os.Remove(src)
	if err != nil {
		os.Remove(dst)
		return errors.WithStack(err)
	}

	return nil
}

// CopyFile copies a file from source to destination, keeping its mode.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return errors.WithStack(err)
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return errors.WithStack(err)
	}

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	err = destFile.Chmod(sourceInfo.Mode())
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// UniqueFilepath creates a unique filepath by appending a number if needed.
func UniqueFilepath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	nameWithoutExt := BaseNameWithoutExt(path)

	for i := 1; i < 1000; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", nameWithoutExt, i, ext))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}

	// Fallback - this should rarely happen
	return path
}

// IsParentPath reports whether child sits at or below parent.
func IsParentPath(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithParentDir(rel))
}

func startsWithParentDir(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
