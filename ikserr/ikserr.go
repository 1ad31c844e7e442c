// Package ikserr defines the closed error taxonomy shared by arena, sax and
// document: NoMemory, BadXML and HandlerAbort, plus the fixed set of static
// BadXML descriptions named in the specification.
package ikserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind partitions every error this module returns into one of three
// buckets, matching the specification's error handling design.
type Kind int

const (
	// KindNoMemory reports an allocation failure in the arena or in a
	// parser buffer. The call that returned it left no partial state.
	KindNoMemory Kind = iota
	// KindBadXML reports malformed input; the Description field carries
	// a stable, static string from the closed set below.
	KindBadXML
	// KindHandlerAbort reports that a SAX handler chose to stop parsing.
	KindHandlerAbort
)

func (k Kind) String() string {
	switch k {
	case KindNoMemory:
		return "NoMemory"
	case KindBadXML:
		return "BadXml"
	case KindHandlerAbort:
		return "HandlerAbort"
	default:
		return "Unknown"
	}
}

// Description is one of the closed set of static BadXML descriptions
// enumerated in §4.4/§7 of the specification. Descriptions are stable and
// safe to match on in tests or log messages.
type Description string

// The closed set of BadXML descriptions. Every BadXML error returned by
// this module carries exactly one of these.
const (
	DescUTF8InvalidContByte        Description = "UTF8_INVALID_CONT_BYTE"
	DescUTF8OverlongSequence       Description = "UTF8_OVERLONG_SEQUENCE"
	DescUTF8InvalidPrefixByte      Description = "UTF8_INVALID_PREFIX_BYTE"
	DescCharInvalid                Description = "CHAR_INVALID"
	DescDocNoContent                Description = "DOC_NO_CONTENT"
	DescDocOpenTags                 Description = "DOC_OPEN_TAGS"
	DescDocOpenMarkup               Description = "DOC_OPEN_MARKUP"
	DescDocCDataWithoutParent       Description = "DOC_CDATA_WITHOUT_PARENT"
	DescTagCloseWithoutOpen         Description = "TAG_CLOSE_WITHOUT_OPEN"
	DescTagWhitespaceStart          Description = "TAG_WHITESPACE_START"
	DescTagOutsideRoot              Description = "TAG_OUTSIDE_ROOT"
	DescTagEmptyName                Description = "TAG_EMPTY_NAME"
	DescTagDoubleEnd                Description = "TAG_DOUBLE_END"
	DescTagEndTagAttributes         Description = "TAG_END_TAG_ATTRIBUTES"
	DescTagEmptyTagMissingEnd       Description = "TAG_EMPTY_TAG_MISSING_END"
	DescTagAttributeWithoutEqual    Description = "TAG_ATTRIBUTE_WITHOUT_EQUAL"
	DescTagAttributeWithoutQuote    Description = "TAG_ATTRIBUTE_WITHOUT_QUOTE"
	DescTagAttributeBadName         Description = "TAG_ATTRIBUTE_BAD_NAME"
	DescTagAttributeBadValue        Description = "TAG_ATTRIBUTE_BAD_VALUE"
	DescReferenceInvalidDecimal     Description = "REFERENCE_INVALID_DECIMAL"
	DescReferenceInvalidHex         Description = "REFERENCE_INVALID_HEX"
	DescReferenceCustomEntity       Description = "REFERENCE_CUSTOM_ENTITY"
	DescCommentMissingDash          Description = "COMMENT_MISSING_DASH"
	DescCommentMissingEnd           Description = "COMMENT_MISSING_END"
	DescMarkupCDataSectionBadStart  Description = "MARKUP_CDATA_SECTION_BAD_START"
	DescMarkupDoctypeBadStart       Description = "MARKUP_DOCTYPE_BAD_START"
	DescMarkupCDataOutsideRoot      Description = "MARKUP_CDATA_SECTION_OUTSIDE_ROOT"
	DescMarkupUnrecognized          Description = "MARKUP_UNRECOGNIZED"
	DescPIMissingEnd                Description = "PI_MISSING_END"
	DescTagMismatch                 Description = "TAG_MISMATCH"
	DescDuplicateAttribute          Description = "DUPLICATE_ATTRIBUTE"
	DescNoDocument                  Description = "NO_DOCUMENT"
)

// Error is the single error type returned by this module's exported
// functions. It is never constructed with a Description unless Kind ==
// KindBadXML.
type Error struct {
	Kind        Kind
	Description Description
	cause       error
}

func (e *Error) Error() string {
	if e.Kind == KindBadXML {
		return fmt.Sprintf("%s: %s", e.Kind, e.Description)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.cause)
	}
	return e.Kind.String()
}

// Cause implements the github.com/pkg/errors Causer interface so that
// errors.Cause(err) and "%+v" formatting unwrap to the original failure.
func (e *Error) Cause() error { return e.cause }

// NoMemory builds a KindNoMemory error. msg describes which allocation
// failed (e.g. "struct chunk", "cdata chunk", "tag-name buffer").
func NoMemory(msg string) error {
	return &Error{Kind: KindNoMemory, cause: errors.New(msg)}
}

// BadXML builds a KindBadXML error carrying one of the closed
// descriptions.
func BadXML(desc Description) error {
	return &Error{Kind: KindBadXML, Description: desc, cause: errors.New(string(desc))}
}

// HandlerAbort wraps the error returned by a SAX handler that chose to
// stop parsing.
func HandlerAbort(cause error) error {
	return &Error{Kind: KindHandlerAbort, cause: errors.WithStack(cause)}
}

// Is reports whether err is an *Error of the given kind, unwrapping
// github.com/pkg/errors-style wrapped errors along the way.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		c, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}

// IsBadXML reports whether err is a KindBadXML error with the given
// description.
func IsBadXML(err error, desc Description) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == KindBadXML && e.Description == desc
}
