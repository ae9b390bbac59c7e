package input

import "errors"

var (
	// ErrNoItemsKey indicates a record source contains none of the
	// recognized top-level array fields.
	ErrNoItemsKey = errors.New("input has none of the recognized item keys (qa_pairs, items, chunks)")

	// ErrNotAnObject indicates an element of the items array is not a
	// JSON object.
	ErrNotAnObject = errors.New("items array element is not an object")

	// ErrNoPDFs indicates a directory source contains no PDF files.
	ErrNoPDFs = errors.New("no PDF files found in directory")
)
