package dataset

import "fmt"

// NetworkError reports that the dataset could not be retrieved.
type NetworkError struct {
	URL        string
	StatusCode int
	Body       string // first 512 bytes
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a row or column the table reader could not accept.
// Line is 1-based and counts the header. Row is the 1-based data record
// number, set when the source line is unknown. Both zero means the header.
type ParseError struct {
	Line   int
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0 && e.Row > 0:
		return fmt.Sprintf("parse record %d: column %q value %q: %v", e.Row, e.Column, e.Value, e.Err)
	case e.Line == 0:
		return fmt.Sprintf("parse header: column %q: %v", e.Column, e.Err)
	case e.Column == "":
		return fmt.Sprintf("parse line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("parse line %d: column %q value %q: %v", e.Line, e.Column, e.Value, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
