// Package xmlcheck cross-validates serializer output by round-tripping it
// through github.com/clbanning/mxj, an independent XML implementation.
// It exists for tests only: document.Document.String() producing bytes
// that mxj itself refuses to parse, or that decode into a structurally
// different tree than the source document, means the serializer escaped
// or nested something wrong.
package xmlcheck

import (
	"fmt"
	"reflect"

	"github.com/clbanning/mxj"
)

// RoundTrips reports whether serialized, fed back through an independent
// XML decoder, describes the same element/attribute/text structure as
// original. A nil error means they matched; any mismatch is returned as
// an error describing where the two maps diverged.
func RoundTrips(original, serialized []byte) error {
	wantMap, err := mxj.NewMapXml(original)
	if err != nil {
		return fmt.Errorf("xmlcheck: original document did not parse: %w", err)
	}
	gotMap, err := mxj.NewMapXml(serialized)
	if err != nil {
		return fmt.Errorf("xmlcheck: serialized document did not parse: %w", err)
	}
	if !reflect.DeepEqual(map[string]interface{}(wantMap), map[string]interface{}(gotMap)) {
		return fmt.Errorf("xmlcheck: structure diverged after round-trip: want %#v, got %#v", wantMap, gotMap)
	}
	return nil
}

// MustParse decodes xml with mxj, panicking on failure. It exists for test
// setup code where a parse failure indicates a broken test fixture rather
// than a condition under test.
func MustParse(xml []byte) mxj.Map {
	m, err := mxj.NewMapXml(xml)
	if err != nil {
		panic(fmt.Sprintf("xmlcheck: fixture did not parse: %v", err))
	}
	return m
}
