package document

import (
	"github.com/sirupsen/logrus"

	"github.com/ikscore/ikscore/arena"
	"github.com/ikscore/ikscore/ikscfg"
	"github.com/ikscore/ikscore/ikserr"
	"github.com/ikscore/ikscore/internal/d"
	"github.com/ikscore/ikscore/sax"
)

// Builder is a sax.Handler that constructs a Document from the event
// stream of a sax.Parser. The first StartTag it sees creates the
// Document with that name as the root; every subsequent event operates
// on an internal current-node pointer the way a DOM builder would.
type Builder struct {
	arena   *arena.Arena
	doc     *Document
	current *node
	log     *logrus.Entry
}

// NewBuilder returns a Builder that allocates its own arena lazily, on
// the first StartTag event.
func NewBuilder() *Builder {
	return &Builder{log: discardLog}
}

// NewBuilderWithArena returns a Builder backed by a caller-supplied
// arena, for callers that want non-default chunk sizes or a NoMemory
// ceiling.
func NewBuilderWithArena(a *arena.Arena) *Builder {
	return &Builder{arena: a, log: discardLog}
}

var discardLog = logrus.NewEntry(func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return l
}())

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetLogger attaches a structured logger used for Debug-level tree
// construction diagnostics. Passing nil restores the discarding default.
func (b *Builder) SetLogger(log *logrus.Entry) {
	if log == nil {
		log = discardLog
	}
	b.log = log
}

// Document returns the tree built so far. It is nil until the first
// StartTag event has been processed.
func (b *Builder) Document() *Document {
	return b.doc
}

func (b *Builder) ensureArena() (*arena.Arena, error) {
	if b.arena != nil {
		return b.arena, nil
	}
	a, err := arena.New()
	if err != nil {
		return nil, err
	}
	b.arena = a
	return a, nil
}

func (b *Builder) StartTag(name string) error {
	a, err := b.ensureArena()
	if err != nil {
		return err
	}
	stored, err := a.PushString(name)
	if err != nil {
		return err
	}
	if b.doc == nil {
		root, err := newTagNode(a, stored)
		if err != nil {
			return err
		}
		b.doc = &Document{arena: a, root: root}
		b.current = root
		b.log.WithFields(logrus.Fields{"root": name}).Debug("document: root tag created")
		return nil
	}
	child, err := newTagNode(a, stored)
	if err != nil {
		return err
	}
	if err := d.Try(func() { appendChild(b.current, child) }); err != nil {
		return err
	}
	b.current = child
	return nil
}

func (b *Builder) Attribute(name, value string) error {
	if b.current == nil || b.current.kind != kindTag {
		return errNoDocument()
	}
	if findAttribute(b.current.asTag, name) != nil {
		return duplicateAttributeError()
	}
	storedName, err := b.arena.PushString(name)
	if err != nil {
		return err
	}
	storedValue, err := b.arena.PushString(value)
	if err != nil {
		return err
	}
	at, err := arena.AllocStruct[attribute](b.arena)
	if err != nil {
		return err
	}
	at.name, at.value = storedName, storedValue
	return d.Try(func() { appendAttribute(b.current.asTag, at) })
}

func (b *Builder) EmptyElementTag() error {
	if b.current == nil {
		return errNoDocument()
	}
	b.current = b.current.parent
	return nil
}

func (b *Builder) CData(s string) error {
	if b.current == nil || b.current.kind != kindTag {
		return errNoDocument()
	}
	last := b.current.asTag.lastChild
	if last != nil && last.kind == kindCData {
		joined, err := b.arena.ConcatString(last.asText.text, s)
		if err != nil {
			return err
		}
		last.asText.text = joined
		return nil
	}
	stored, err := b.arena.PushString(s)
	if err != nil {
		return err
	}
	child, err := newCDataNode(b.arena, stored)
	if err != nil {
		return err
	}
	return d.Try(func() { appendChild(b.current, child) })
}

func (b *Builder) EndTag(name string) error {
	if b.current == nil || b.current.kind != kindTag {
		return errNoDocument()
	}
	if b.current.asTag.name != name {
		b.log.WithFields(logrus.Fields{"open": b.current.asTag.name, "close": name}).Warn("document: end tag does not match open tag")
		return tagMismatchError()
	}
	b.current = b.current.parent
	return nil
}

// Parse drives a fresh sax.Parser over data and returns the resulting
// Document. It is a convenience wrapper equivalent to constructing a
// Builder and a sax.Parser and calling ParseBytesFinish.
func Parse(data []byte) (*Document, error) {
	return ParseWithConfig(data, ikscfg.Default())
}

// ParseWithConfig is Parse with arena sizing and the epilog-DOCTYPE
// resolution taken from cfg instead of ikscfg.Default().
func ParseWithConfig(data []byte, cfg ikscfg.Config) (*Document, error) {
	a, err := arena.NewWithLimit(cfg.Arena.StructWords, cfg.Arena.CDataBytes, cfg.Arena.MaxBytes)
	if err != nil {
		return nil, err
	}
	b := NewBuilderWithArena(a)
	p := sax.New()
	p.SetAllowEpilogDoctype(!cfg.StrictEpilogDoctype)
	if err := p.ParseBytesFinish(b, data); err != nil {
		// The parser wraps every error the Builder returns in HandlerAbort;
		// an ikserr error raised by the Builder itself (TAG_MISMATCH,
		// DUPLICATE_ATTRIBUTE, NoMemory, ...) is returned unwrapped.
		if e, ok := err.(*ikserr.Error); ok && e.Kind == ikserr.KindHandlerAbort {
			if c, ok := e.Cause().(interface{ Cause() error }); ok {
				if inner, ok := c.Cause().(*ikserr.Error); ok {
					return nil, inner
				}
			}
		}
		return nil, err
	}
	if b.doc == nil {
		return nil, errNoDocument()
	}
	return b.doc, nil
}
