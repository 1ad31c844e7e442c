package sax

// predefinedEntities is the fixed, non-extensible set of named character
// references this module understands; anything else is
// REFERENCE_CUSTOM_ENTITY. DTD internal-subset entity declarations are out
// of scope.
var predefinedEntities = map[string]byte{
	"amp":  '&',
	"lt":   '<',
	"gt":   '>',
	"quot": '"',
	"apos": '\'',
}

// maxEntityNameLen bounds the fixed entity-name buffer; a name that
// doesn't terminate with ';' within this many bytes can't be any of the
// five predefined entities and is reported as REFERENCE_CUSTOM_ENTITY
// without further buffering.
const maxEntityNameLen = 8
