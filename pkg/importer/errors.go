package importer

import (
	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/placement"
	"github.com/shishobooks/librarr/pkg/recyclebin"
)

// ErrorKind is the closed set of reasons a single file can fail to import.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindRootFolderMissing
	ErrorKindDestinationExists
	ErrorKindPermissionDenied
	ErrorKindRecycleBinFailure
	ErrorKindExternalLibrary
)

var errorKindNames = map[ErrorKind]string{
	ErrorKindUnknown:           "unknown",
	ErrorKindRootFolderMissing: "root_folder_missing",
	ErrorKindDestinationExists: "destination_exists",
	ErrorKindPermissionDenied:  "permission_denied",
	ErrorKindRecycleBinFailure: "recycle_bin_failure",
	ErrorKindExternalLibrary:   "external_library",
}

func (k ErrorKind) String() string {
	return errorKindNames[k]
}

// Message is the rejection reason reported back to the caller.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorKindRootFolderMissing:
		return "Failed to import book, root folder missing."
	case ErrorKindDestinationExists:
		return "Failed to import book, destination already exists."
	case ErrorKindPermissionDenied:
		return "Failed to import book, permissions error"
	case ErrorKindRecycleBinFailure:
		return "Failed to import book, unable to move existing file to the Recycle Bin."
	case ErrorKindExternalLibrary:
		return "Failed to import book, error communicating with Calibre.  Check log for details."
	default:
		return "Failed to import book."
	}
}

// PublishesFailure reports whether listeners hear about this kind of failure.
func (k ErrorKind) PublishesFailure() bool {
	switch k {
	case ErrorKindRootFolderMissing, ErrorKindDestinationExists, ErrorKindPermissionDenied, ErrorKindRecycleBinFailure:
		return true
	default:
		return false
	}
}

type ImportError struct {
	Kind ErrorKind
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// classify tags err with the kind the lower layers signalled.
func classify(err error) *ImportError {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie
	}

	kind := ErrorKindUnknown
	switch {
	case errors.Is(err, placement.ErrRootFolderMissing):
		kind = ErrorKindRootFolderMissing
	case errors.Is(err, fileutils.ErrDestinationExists):
		kind = ErrorKindDestinationExists
	case errors.Is(err, recyclebin.ErrTransfer):
		kind = ErrorKindRecycleBinFailure
	case errors.Is(err, fileutils.ErrPermissionDenied):
		kind = ErrorKindPermissionDenied
	case errors.Is(err, placement.ErrExternalLibrary):
		kind = ErrorKindExternalLibrary
	}
	return &ImportError{Kind: kind, Err: err}
}
