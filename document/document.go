package document

import (
	"github.com/ikscore/ikscore/arena"
	"github.com/ikscore/ikscore/ikserr"
)

// Document is a complete in-memory XML tree: a single root Tag plus
// every node and string reachable from it, all owned by one Arena.
type Document struct {
	arena *arena.Arena
	root  *node
}

// New allocates a fresh arena and a root Tag named rootName, returning a
// Document positioned with that Tag as its only content.
func New(rootName string) (*Document, error) {
	a, err := arena.New()
	if err != nil {
		return nil, err
	}
	return NewWithArena(a, rootName)
}

// NewWithArena builds a Document backed by a caller-supplied arena, for
// callers that want to tune chunk sizes via arena.NewWithChunkSizes or
// share capacity limits via arena.NewWithLimit.
func NewWithArena(a *arena.Arena, rootName string) (*Document, error) {
	name, err := a.PushString(rootName)
	if err != nil {
		return nil, err
	}
	root, err := newTagNode(a, name)
	if err != nil {
		return nil, err
	}
	return &Document{arena: a, root: root}, nil
}

// Root returns a Cursor positioned on the document's root Tag.
func (d *Document) Root() Cursor {
	return Cursor{doc: d, n: d.root}
}

// Arena exposes the backing allocator, e.g. for Stats or Reset. Resetting
// it while any Cursor derived from this Document is still in use is
// undefined: every node and string the Document holds is invalidated.
func (d *Document) Arena() *arena.Arena {
	return d.arena
}

func (d *Document) pushString(s string) (string, error) {
	return d.arena.PushString(s)
}

func (d *Document) concatString(old, add string) (string, error) {
	return d.arena.ConcatString(old, add)
}

// errNoDocument is returned by Cursor operations that have nowhere valid
// to act: a null cursor, a non-Tag target where a Tag is required, or an
// edit that would give the root element a sibling.
func errNoDocument() error {
	return ikserr.BadXML(ikserr.DescNoDocument)
}

func duplicateAttributeError() error {
	return ikserr.BadXML(ikserr.DescDuplicateAttribute)
}

func tagMismatchError() error {
	return ikserr.BadXML(ikserr.DescTagMismatch)
}
