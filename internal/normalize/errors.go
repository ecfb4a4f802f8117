package normalize

import "errors"

var (
	ErrMalformedDocument   = errors.New("malformed output document")
	ErrDocumentUnavailable = errors.New("output document unavailable")
)
