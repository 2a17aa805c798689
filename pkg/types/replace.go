package types

import "os"

// ReplacementTask is one edit within a file: replace the half-open byte
// range [Start, End) with ReplacementText. Start < End, and End must not
// exceed the file size at plan time.
type ReplacementTask struct {
	Start           int64
	End             int64
	ReplacementText []byte
}

// FileReplacementPlan is an ordered, non-overlapping sequence of edits for
// a single file. Tasks are sorted ascending by Start; for any two
// consecutive tasks, Tasks[i].End <= Tasks[i+1].Start.
type FileReplacementPlan struct {
	Path             string
	Tasks            []ReplacementTask
	OriginalMetadata os.FileMode
}
