package domain

import "errors"

// Validation sentinels for note input.
var (
	errEmptyContentNote      = errors.New("content note requires content or a page")
	errEmptyVocabNote        = errors.New("vocab note requires a word")
	errStatusNoteWithoutDate = errors.New("status note requires a date")
	errUnknownNoteType       = errors.New("unknown note type")
)
