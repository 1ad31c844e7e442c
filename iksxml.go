// Package iksxml is the one-import facade over this module's packages:
// ikscfg for tunables, sax for the incremental tokenizer, and document
// for the in-memory tree and its Builder. Callers that want direct
// control over arena sizing, a custom sax.Handler, or streaming parse
// should use those packages directly; this facade covers the common
// "parse a whole document with defaults" case.
package iksxml

import (
	"github.com/ikscore/ikscore/document"
	"github.com/ikscore/ikscore/ikscfg"
)

// Document is the parsed in-memory XML tree. See document.Document for
// the full API reached through Root().
type Document = document.Document

// Cursor navigates and edits a Document. See document.Cursor.
type Cursor = document.Cursor

// Open parses data using configuration resolved by searching the
// working directory and its ancestors for .ikscore.toml, falling back
// to this module's documented defaults if none is found.
func Open(data []byte) (*Document, error) {
	cfg, err := ikscfg.LoadFromWorkingDirectory()
	if err != nil {
		return nil, err
	}
	return document.ParseWithConfig(data, cfg)
}

// OpenWithConfig parses data using an explicit configuration instead of
// resolving one from the filesystem.
func OpenWithConfig(data []byte, cfg ikscfg.Config) (*Document, error) {
	return document.ParseWithConfig(data, cfg)
}

// New creates an empty Document with a root tag named rootName, using
// this module's default arena sizing.
func New(rootName string) (*Document, error) {
	return document.New(rootName)
}
