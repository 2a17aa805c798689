package types

import "fmt"

// InvalidPatternError reports an empty pattern, an uncompilable regex, or
// a replacement template referencing a capture group that does not exist.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

// EncodingError reports invalid UTF-8 encountered under FailFast mode.
type EncodingError struct {
	Path       string
	ByteOffset int64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: invalid UTF-8 at byte offset %d", e.Path, e.ByteOffset)
}

// WalkError reports a per-entry enumeration failure; it never aborts the
// walk as a whole.
type WalkError struct {
	Path  string
	Cause error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walking %s: %v", e.Path, e.Cause)
}

func (e *WalkError) Unwrap() error { return e.Cause }

// CacheError reports a load/save failure; the caller degrades to a
// non-incremental search rather than aborting.
type CacheError struct {
	Path  string
	Cause error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Path, e.Cause)
}

func (e *CacheError) Unwrap() error { return e.Cause }

// ConflictError reports overlapping replacement tasks; the whole plan for
// the file is rejected and no files are touched.
type ConflictError struct {
	File string
	Line int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s:%d: overlapping replacement tasks", e.File, e.Line)
}

// ReplaceErrorKind classifies a ReplaceError.
type ReplaceErrorKind int

const (
	ReplaceErrorIO ReplaceErrorKind = iota
	ReplaceErrorPermission
	ReplaceErrorRename
	ReplaceErrorMetadata
)

// ReplaceError reports an I/O failure while applying a plan. The original
// file is guaranteed untouched; any temp file has already been removed.
type ReplaceError struct {
	Kind  ReplaceErrorKind
	Path  string
	Cause error
}

func (e *ReplaceError) Error() string {
	return fmt.Sprintf("replacing %s: %v", e.Path, e.Cause)
}

func (e *ReplaceError) Unwrap() error { return e.Cause }

// FileErrorKind classifies a per-file I/O failure encountered while
// processing; any of them skip that file without aborting the search.
type FileErrorKind int

const (
	FileNotFound FileErrorKind = iota
	FilePermissionDenied
	FileIO
)

// FileError reports a per-file failure during FileProcessor reading.
type FileError struct {
	Kind  FileErrorKind
	Path  string
	Cause error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Cause)
}

func (e *FileError) Unwrap() error { return e.Cause }

// UndoError reports a missing or tampered backup during undo. Files that
// were already restored remain restored; Remaining lists what is not.
type UndoError struct {
	RecordID  int64
	Remaining []string
	Cause     error
}

func (e *UndoError) Error() string {
	return fmt.Sprintf("undo %d: %v (unrestored: %v)", e.RecordID, e.Cause, e.Remaining)
}

func (e *UndoError) Unwrap() error { return e.Cause }
