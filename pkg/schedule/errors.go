package schedule

import (
	"errors"
	"fmt"
)

// Sentinel errors for the parse call. All parse errors are terminal:
// no partial schedule is ever returned alongside one of these.
var (
	// ErrMalformed indicates the document could not be tokenized.
	ErrMalformed = errors.New("malformed schedule document")

	// ErrIncomplete indicates the input ended before the closing
	// schedule element was seen.
	ErrIncomplete = errors.New("incomplete schedule document")
)

// MissingAttributeError reports a required attribute absent from an
// otherwise well-formed element.
type MissingAttributeError struct {
	Element   string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("element <%s> is missing required attribute %q", e.Element, e.Attribute)
}

// IsMissingAttribute reports whether any error in err's chain is a
// MissingAttributeError.
func IsMissingAttribute(err error) bool {
	var mae *MissingAttributeError
	return errors.As(err, &mae)
}
