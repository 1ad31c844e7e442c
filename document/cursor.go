package document

import (
	"github.com/ikscore/ikscore/arena"
	"github.com/ikscore/ikscore/internal/d"
)

// Cursor is a non-owning reference to a position in a Document's tree.
// The zero Cursor is null and every navigation method on a null Cursor
// returns another null Cursor, so call chains like
// c.Parent().NextTag().FirstChild() are always safe to write without an
// IsNull check after every step.
type Cursor struct {
	doc *Document
	n   *node
}

// IsNull reports whether this cursor refers to no node.
func (c Cursor) IsNull() bool { return c.n == nil }

// IsTag reports whether this cursor refers to a Tag node.
func (c Cursor) IsTag() bool { return c.n != nil && c.n.kind == kindTag }

// Name returns the tag name, or "" for a CData node or a null cursor.
func (c Cursor) Name() string {
	if c.n == nil || c.n.kind != kindTag {
		return ""
	}
	return c.n.asTag.name
}

// CData returns the text of a CData node, or "" for a Tag node or a null
// cursor.
func (c Cursor) CData() string {
	if c.n == nil || c.n.kind != kindCData {
		return ""
	}
	return c.n.asText.text
}

// Attribute looks up an attribute by name on a Tag node, returning its
// value and true if present.
func (c Cursor) Attribute(name string) (string, bool) {
	if c.n == nil || c.n.kind != kindTag {
		return "", false
	}
	at := findAttribute(c.n.asTag, name)
	if at == nil {
		return "", false
	}
	return at.value, true
}

// Navigation.

func (c Cursor) Next() Cursor {
	if c.n == nil {
		return Cursor{}
	}
	return Cursor{c.doc, c.n.next}
}

func (c Cursor) Previous() Cursor {
	if c.n == nil {
		return Cursor{}
	}
	return Cursor{c.doc, c.n.prev}
}

func (c Cursor) Parent() Cursor {
	if c.n == nil {
		return Cursor{}
	}
	return Cursor{c.doc, c.n.parent}
}

func (c Cursor) FirstChild() Cursor {
	if c.n == nil || c.n.kind != kindTag {
		return Cursor{}
	}
	return Cursor{c.doc, c.n.asTag.firstChild}
}

func (c Cursor) LastChild() Cursor {
	if c.n == nil || c.n.kind != kindTag {
		return Cursor{}
	}
	return Cursor{c.doc, c.n.asTag.lastChild}
}

func (c Cursor) Root() Cursor {
	if c.n == nil {
		return Cursor{}
	}
	n := c.n
	for n.parent != nil {
		n = n.parent
	}
	return Cursor{c.doc, n}
}

func isTagNode(n *node) bool { return n != nil && n.kind == kindTag }

// NextTag is Next, skipping over any CData siblings.
func (c Cursor) NextTag() Cursor {
	if c.n == nil {
		return Cursor{}
	}
	n := c.n.next
	for n != nil && !isTagNode(n) {
		n = n.next
	}
	return Cursor{c.doc, n}
}

// PreviousTag is Previous, skipping over any CData siblings.
func (c Cursor) PreviousTag() Cursor {
	if c.n == nil {
		return Cursor{}
	}
	n := c.n.prev
	for n != nil && !isTagNode(n) {
		n = n.prev
	}
	return Cursor{c.doc, n}
}

// FirstTag is FirstChild, skipping over any leading CData children.
func (c Cursor) FirstTag() Cursor {
	if c.n == nil || c.n.kind != kindTag {
		return Cursor{}
	}
	n := c.n.asTag.firstChild
	for n != nil && !isTagNode(n) {
		n = n.next
	}
	return Cursor{c.doc, n}
}

// FindTag returns the first direct child Tag named name, or a null
// cursor if there is none.
func (c Cursor) FindTag(name string) Cursor {
	if c.n == nil || c.n.kind != kindTag {
		return Cursor{}
	}
	for n := c.n.asTag.firstChild; n != nil; n = n.next {
		if isTagNode(n) && n.asTag.name == name {
			return Cursor{c.doc, n}
		}
	}
	return Cursor{}
}

// Editing.

// InsertTag appends a new Tag named name as the last child of the
// referenced node, returning a cursor on the new tag. Fails with
// NO_DOCUMENT if the referenced cursor is null or is not a Tag.
func (c Cursor) InsertTag(name string) (Cursor, error) {
	if c.n == nil || c.n.kind != kindTag {
		return Cursor{}, errNoDocument()
	}
	stored, err := c.doc.pushString(name)
	if err != nil {
		return Cursor{}, err
	}
	child, err := newTagNode(c.doc.arena, stored)
	if err != nil {
		return Cursor{}, err
	}
	if err := d.Try(func() { appendChild(c.n, child) }); err != nil {
		return Cursor{}, err
	}
	return Cursor{c.doc, child}, nil
}

// AppendTag inserts a new Tag named name as the sibling immediately after
// the referenced node. Fails with NO_DOCUMENT if the referenced cursor is
// null or is the document root (which has no siblings).
func (c Cursor) AppendTag(name string) (Cursor, error) {
	if c.n == nil || c.n.parent == nil {
		return Cursor{}, errNoDocument()
	}
	stored, err := c.doc.pushString(name)
	if err != nil {
		return Cursor{}, err
	}
	sib, err := newTagNode(c.doc.arena, stored)
	if err != nil {
		return Cursor{}, err
	}
	if err := d.Try(func() { insertAfter(c.n, sib) }); err != nil {
		return Cursor{}, err
	}
	return Cursor{c.doc, sib}, nil
}

// PrependTag inserts a new Tag named name as the sibling immediately
// before the referenced node. Fails with NO_DOCUMENT if the referenced
// cursor is null or is the document root.
func (c Cursor) PrependTag(name string) (Cursor, error) {
	if c.n == nil || c.n.parent == nil {
		return Cursor{}, errNoDocument()
	}
	stored, err := c.doc.pushString(name)
	if err != nil {
		return Cursor{}, err
	}
	sib, err := newTagNode(c.doc.arena, stored)
	if err != nil {
		return Cursor{}, err
	}
	if err := d.Try(func() { insertBefore(c.n, sib) }); err != nil {
		return Cursor{}, err
	}
	return Cursor{c.doc, sib}, nil
}

// InsertCData appends a new CData child with the given text as the last
// child of the referenced node.
func (c Cursor) InsertCData(text string) (Cursor, error) {
	if c.n == nil || c.n.kind != kindTag {
		return Cursor{}, errNoDocument()
	}
	stored, err := c.doc.pushString(text)
	if err != nil {
		return Cursor{}, err
	}
	child, err := newCDataNode(c.doc.arena, stored)
	if err != nil {
		return Cursor{}, err
	}
	if err := d.Try(func() { appendChild(c.n, child) }); err != nil {
		return Cursor{}, err
	}
	return Cursor{c.doc, child}, nil
}

// AppendCData inserts a new CData sibling immediately after the
// referenced node.
func (c Cursor) AppendCData(text string) (Cursor, error) {
	if c.n == nil || c.n.parent == nil {
		return Cursor{}, errNoDocument()
	}
	stored, err := c.doc.pushString(text)
	if err != nil {
		return Cursor{}, err
	}
	sib, err := newCDataNode(c.doc.arena, stored)
	if err != nil {
		return Cursor{}, err
	}
	if err := d.Try(func() { insertAfter(c.n, sib) }); err != nil {
		return Cursor{}, err
	}
	return Cursor{c.doc, sib}, nil
}

// PrependCData inserts a new CData sibling immediately before the
// referenced node.
func (c Cursor) PrependCData(text string) (Cursor, error) {
	if c.n == nil || c.n.parent == nil {
		return Cursor{}, errNoDocument()
	}
	stored, err := c.doc.pushString(text)
	if err != nil {
		return Cursor{}, err
	}
	sib, err := newCDataNode(c.doc.arena, stored)
	if err != nil {
		return Cursor{}, err
	}
	if err := d.Try(func() { insertBefore(c.n, sib) }); err != nil {
		return Cursor{}, err
	}
	return Cursor{c.doc, sib}, nil
}

// InsertAttribute adds name=value to the referenced Tag. Fails with
// DUPLICATE_ATTRIBUTE if name is already present.
func (c Cursor) InsertAttribute(name, value string) error {
	if c.n == nil || c.n.kind != kindTag {
		return errNoDocument()
	}
	if findAttribute(c.n.asTag, name) != nil {
		return duplicateAttributeError()
	}
	storedName, err := c.doc.pushString(name)
	if err != nil {
		return err
	}
	storedValue, err := c.doc.pushString(value)
	if err != nil {
		return err
	}
	at, err := arena.AllocStruct[attribute](c.doc.arena)
	if err != nil {
		return err
	}
	at.name, at.value = storedName, storedValue
	return d.Try(func() { appendAttribute(c.n.asTag, at) })
}

// SetAttribute replaces name's value if present, appends it if absent
// (when value != nil), or removes it if present (when value == nil; a
// no-op if name is absent).
func (c Cursor) SetAttribute(name string, value *string) error {
	if c.n == nil || c.n.kind != kindTag {
		return errNoDocument()
	}
	at := findAttribute(c.n.asTag, name)
	if value == nil {
		if at != nil {
			removeAttribute(c.n.asTag, at)
		}
		return nil
	}
	stored, err := c.doc.pushString(*value)
	if err != nil {
		return err
	}
	if at != nil {
		at.value = stored
		return nil
	}
	return c.InsertAttribute(name, *value)
}

// Remove unlinks the referenced node from its parent's child list. The
// node's arena memory is not reclaimed until the whole arena is reset.
// Fails with NO_DOCUMENT if the cursor is null or refers to the root.
func (c Cursor) Remove() error {
	if c.n == nil || c.n.parent == nil {
		return errNoDocument()
	}
	return d.Try(func() { unlink(c.n) })
}
