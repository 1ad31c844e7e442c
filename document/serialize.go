package document

import "strings"

// escapedLen returns the length s would have after XML-escaping, without
// allocating, so StrSize can preallocate exactly.
func escapedLen(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n += escapedByteLen(s[i])
	}
	return n
}

func escapedByteLen(b byte) int {
	switch b {
	case '<', '>':
		return 4 // &lt; / &gt;
	case '&':
		return 5 // &amp;
	case '\'', '"':
		return 6 // &apos; / &quot;
	default:
		return 1
	}
}

func writeEscaped(buf *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '\'':
			buf.WriteString("&apos;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteByte(s[i])
		}
	}
}

// StrSize returns exactly the number of bytes String will produce for the
// subtree rooted at this cursor, enabling exact preallocation.
func (c Cursor) StrSize() int {
	if c.n == nil {
		return 0
	}
	return nodeStrSize(c.n)
}

func nodeStrSize(n *node) int {
	if n.kind == kindCData {
		return escapedLen(n.asText.text)
	}
	t := n.asTag
	size := 1 + len(t.name) // "<" + name
	for at := t.firstAttr; at != nil; at = at.next {
		size += 1 + len(at.name) + 2 + escapedLen(at.value) + 1 // " name=\"value\""
	}
	if t.firstChild == nil {
		return size + 2 // "/>"
	}
	size++ // ">"
	for child := t.firstChild; child != nil; child = child.next {
		size += nodeStrSize(child)
	}
	size += 3 + len(t.name) // "</" + name + ">"
	return size
}

// String renders the subtree rooted at this cursor as canonical XML:
// empty tags use "/>", attributes appear in insertion order with double
// quotes, and text is minimally escaped. The output is not guaranteed to
// be byte-identical to whatever was originally parsed. A null cursor
// renders as "".
func (c Cursor) String() string {
	if c.n == nil {
		return ""
	}
	var buf strings.Builder
	buf.Grow(nodeStrSize(c.n))
	writeNode(&buf, c.n)
	return buf.String()
}

func writeNode(buf *strings.Builder, n *node) {
	if n.kind == kindCData {
		writeEscaped(buf, n.asText.text)
		return
	}
	t := n.asTag
	buf.WriteByte('<')
	buf.WriteString(t.name)
	for at := t.firstAttr; at != nil; at = at.next {
		buf.WriteByte(' ')
		buf.WriteString(at.name)
		buf.WriteString(`="`)
		writeEscaped(buf, at.value)
		buf.WriteByte('"')
	}
	if t.firstChild == nil {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for child := t.firstChild; child != nil; child = child.next {
		writeNode(buf, child)
	}
	buf.WriteString("</")
	buf.WriteString(t.name)
	buf.WriteByte('>')
}
