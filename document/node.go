// Package document implements the in-memory XML tree: Tag and CData
// nodes living in a single arena, a non-owning Cursor for navigating and
// editing that tree, and a Builder that drives a sax.Parser to construct
// one. Every string and node in a Document is owned by that Document's
// arena and is invalidated together when the arena is reset.
package document

import (
	"github.com/ikscore/ikscore/arena"
	"github.com/ikscore/ikscore/internal/d"
)

type nodeKind int

const (
	kindTag nodeKind = iota
	kindCData
)

// attribute is one name/value pair on a tag, kept in insertion order via
// an intrusive doubly-linked list so str_size/serialization and
// duplicate-name checks don't need a separate map.
type attribute struct {
	name, value string
	prev, next  *attribute
}

// tag holds a Tag node's children and attributes. It never appears on its
// own; every tag is reached through the node that owns it.
type tag struct {
	name                 string
	firstAttr, lastAttr  *attribute
	firstChild, lastChild *node
}

// cdata holds a CData node's text.
type cdata struct {
	text string
}

// node is the tree's intrusive doubly-linked element: every Tag and every
// CData run is a node, linked into its parent's child list and pointing
// back at that parent.
type node struct {
	kind   nodeKind
	asTag  *tag
	asText *cdata

	parent     *node
	prev, next *node
}

func newTagNode(a *arena.Arena, name string) (*node, error) {
	t, err := arena.AllocStruct[tag](a)
	if err != nil {
		return nil, err
	}
	t.name = name
	n, err := arena.AllocStruct[node](a)
	if err != nil {
		return nil, err
	}
	n.kind = kindTag
	n.asTag = t
	return n, nil
}

func newCDataNode(a *arena.Arena, text string) (*node, error) {
	c, err := arena.AllocStruct[cdata](a)
	if err != nil {
		return nil, err
	}
	c.text = text
	n, err := arena.AllocStruct[node](a)
	if err != nil {
		return nil, err
	}
	n.kind = kindCData
	n.asText = c
	return n, nil
}

// appendChild links child as the last child of parent, which must be a
// Tag node. Panics (recoverable by the caller's d.Try) if parent isn't a
// Tag or child is already linked somewhere.
func appendChild(parent, child *node) {
	d.PanicIfFalse(parent.kind == kindTag)
	d.PanicIfTrue(child.parent != nil || child.prev != nil || child.next != nil)
	child.parent = parent
	child.prev = parent.asTag.lastChild
	child.next = nil
	if parent.asTag.lastChild != nil {
		parent.asTag.lastChild.next = child
	} else {
		parent.asTag.firstChild = child
	}
	parent.asTag.lastChild = child
}

// insertBefore links newNode immediately before ref in ref's sibling
// list. ref must not be root (must have a parent).
func insertBefore(ref, newNode *node) {
	d.PanicIfTrue(ref.parent == nil)
	d.PanicIfTrue(newNode.parent != nil || newNode.prev != nil || newNode.next != nil)
	parent := ref.parent
	newNode.parent = parent
	newNode.next = ref
	newNode.prev = ref.prev
	if ref.prev != nil {
		ref.prev.next = newNode
	} else {
		parent.asTag.firstChild = newNode
	}
	ref.prev = newNode
}

// insertAfter links newNode immediately after ref in ref's sibling list.
// ref must not be root (must have a parent).
func insertAfter(ref, newNode *node) {
	d.PanicIfTrue(ref.parent == nil)
	d.PanicIfTrue(newNode.parent != nil || newNode.prev != nil || newNode.next != nil)
	parent := ref.parent
	newNode.parent = parent
	newNode.prev = ref
	newNode.next = ref.next
	if ref.next != nil {
		ref.next.prev = newNode
	} else {
		parent.asTag.lastChild = newNode
	}
	ref.next = newNode
}

// unlink removes n from its parent's child list and clears n's own parent
// and sibling links; the arena memory is only reclaimed on Reset. n must have a
// parent (callers must reject an attempt to unlink the root beforehand).
func unlink(n *node) {
	d.PanicIfTrue(n.parent == nil)
	parent := n.parent
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		parent.asTag.firstChild = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		parent.asTag.lastChild = n.prev
	}
	n.parent = nil
	n.prev = nil
	n.next = nil
}

func findAttribute(t *tag, name string) *attribute {
	for at := t.firstAttr; at != nil; at = at.next {
		if at.name == name {
			return at
		}
	}
	return nil
}

// appendAttribute links at as the last attribute of t. at must not
// already be linked into some attribute list.
func appendAttribute(t *tag, at *attribute) {
	d.PanicIfTrue(at.prev != nil || at.next != nil)
	at.prev = t.lastAttr
	at.next = nil
	if t.lastAttr != nil {
		t.lastAttr.next = at
	} else {
		t.firstAttr = at
	}
	t.lastAttr = at
}

func removeAttribute(t *tag, at *attribute) {
	if at.prev != nil {
		at.prev.next = at.next
	} else {
		t.firstAttr = at.next
	}
	if at.next != nil {
		at.next.prev = at.prev
	} else {
		t.lastAttr = at.prev
	}
	at.prev = nil
	at.next = nil
}
