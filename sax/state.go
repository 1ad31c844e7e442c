package sax

type state int

const (
	stateProlog state = iota
	stateEpilog

	stateTagStart
	stateMarkup

	stateDoctypePrefix
	stateDoctypeWhitespace
	stateDoctypeSkip
	stateDoctypeBracket

	stateCommentStart
	stateCommentBody
	stateCommentDash1
	stateCommentDash2

	stateCDataPrefix
	stateCDataBody

	statePI
	statePIMaybeEnd

	stateTagName
	stateEndTagName
	stateEndTagWhitespace
	stateEmptyTagEnd

	stateAttributeWhitespace
	stateAttributeName
	stateAttributeNameWhitespace
	stateAttributeEq
	stateAttributeValue

	stateReference
	stateCharReference
	stateCharReferenceBody
	stateHexCharReference
	stateEntity

	stateCharData
)

// referenceReturn records which state to resume once a reference (entity
// or character) has been fully decoded, since references can occur in two
// structurally different contexts.
type referenceReturn int

const (
	returnToCharData referenceReturn = iota
	returnToAttributeValue
)
