// Package arena implements the bump-allocating region allocator that backs
// the document tree: two independently growing chunk chains — one for
// fixed-size aligned structures, one for variable-length character data —
// plus the adjacent-string extension that makes SAX CData coalescing
// cheap.
//
// Nothing allocated from an Arena is ever individually freed or finalized;
// the whole arena is reclaimed in bulk by Reset or by letting it become
// unreachable.
package arena

import (
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/ikscore/ikscore/internal/d"
	"github.com/ikscore/ikscore/ikserr"
)

// wordSize is the machine-word size the spec's "struct chunk holds at
// least 32 machine-word slots" default is expressed in.
const wordSize = 8

const (
	minStructWords = 32
	minCDataBytes  = 256
)

// Chunk is one contiguous block of the arena's backing storage. mem is
// allocated once, up front, at len(mem) == cap(mem) == its nominal size;
// used is the bump cursor and last records where the most recent
// allocation within this chunk began, so ConcatString can test adjacency.
type Chunk struct {
	mem  []byte
	used int
	last int // -1 when the chunk has never been allocated from
	next *Chunk
}

func newChunk(size int) *Chunk {
	return &Chunk{mem: make([]byte, size), last: -1}
}

func (c *Chunk) room() int { return len(c.mem) - c.used }

// Stats is the stable three-field view of an Arena's memory usage.
type Stats struct {
	Chunks    int
	Allocated int
	Used      int
}

// String renders Stats using human-readable byte counts, e.g. for log
// lines or interactive debugging.
func (s Stats) String() string {
	return humanizeStats(s)
}

// Arena owns the struct chunk chain and the cdata chunk chain. It is not
// safe for concurrent use: callers needing a shared arena must serialize
// access themselves (the spec explicitly leaves a thread-safe wrapper out
// of core scope).
type Arena struct {
	structHead *Chunk
	cdataHead  *Chunk

	structChunkCount int
	cdataChunkCount  int

	initialStructSize int
	initialCDataSize  int

	maxBytes int // 0 means unlimited
	used     int // running total of all mem allocated, for maxBytes

	log *logrus.Entry
}

// New creates an arena using the spec's default minimums: a struct chunk
// holding at least 32 machine-word slots and a cdata chunk holding at
// least 256 bytes.
func New() (*Arena, error) {
	return NewWithChunkSizes(minStructWords, minCDataBytes)
}

// NewWithChunkSizes creates an arena whose initial struct chunk holds
// structWords machine words and whose initial cdata chunk holds
// cdataBytes bytes. Sizes below the spec minimums are silently raised to
// the minimum.
func NewWithChunkSizes(structWords, cdataBytes int) (*Arena, error) {
	return NewWithLimit(structWords, cdataBytes, 0)
}

// NewWithLimit is NewWithChunkSizes plus an optional ceiling (in bytes,
// summed across both chains) past which further growth fails with
// NoMemory instead of allocating. A limit of 0 means unlimited, matching
// the behavior of New/NewWithChunkSizes.
func NewWithLimit(structWords, cdataBytes, maxBytes int) (*Arena, error) {
	if structWords < minStructWords {
		structWords = minStructWords
	}
	if cdataBytes < minCDataBytes {
		cdataBytes = minCDataBytes
	}
	a := &Arena{
		initialStructSize: structWords * wordSize,
		initialCDataSize:  cdataBytes,
		maxBytes:          maxBytes,
		log:               discardLog,
	}
	structChunk, err := a.newStructChunk(a.initialStructSize)
	if err != nil {
		return nil, err
	}
	cdataChunk, err := a.newCDataChunk(a.initialCDataSize)
	if err != nil {
		return nil, err
	}
	a.structHead = structChunk
	a.cdataHead = cdataChunk
	return a, nil
}

var discardLog = logrus.NewEntry(func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return l
}())

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetLogger attaches a structured logger used for Debug-level chunk growth
// diagnostics. Passing nil restores the discarding default.
func (a *Arena) SetLogger(log *logrus.Entry) {
	if log == nil {
		log = discardLog
	}
	a.log = log
}

func (a *Arena) newStructChunk(size int) (*Chunk, error) {
	if a.maxBytes > 0 && a.used+size > a.maxBytes {
		return nil, ikserr.NoMemory("struct chunk")
	}
	a.used += size
	a.structChunkCount++
	a.log.WithFields(logrus.Fields{"chain": "struct", "size": size, "chunk_count": a.structChunkCount}).Debug("arena: new chunk")
	return newChunk(size), nil
}

func (a *Arena) newCDataChunk(size int) (*Chunk, error) {
	if a.maxBytes > 0 && a.used+size > a.maxBytes {
		return nil, ikserr.NoMemory("cdata chunk")
	}
	a.used += size
	a.cdataChunkCount++
	a.log.WithFields(logrus.Fields{"chain": "cdata", "size": size, "chunk_count": a.cdataChunkCount}).Debug("arena: new chunk")
	return newChunk(size), nil
}

// growthSize implements §4.1's chunk growth algorithm: the new chunk is
// max(2^k * initial, requested), where k is the number of chunks already
// in the chain (i.e. the number of traversal steps taken to discover none
// of them had room).
func growthSize(initial, requested, chainLen int) int {
	size := initial << uint(chainLen)
	if size < requested {
		size = requested
	}
	return size
}

// reserveStruct walks the struct chain for a chunk with room for size
// bytes aligned to align, appending a new chunk via the growth algorithm
// if none is found. It returns the chunk and the aligned offset within it.
func (a *Arena) reserveStruct(size, align int) (*Chunk, int, error) {
	for c := a.structHead; c != nil; c = c.next {
		off := alignUp(c.used, align)
		if off+size <= len(c.mem) {
			return c, off, nil
		}
		if c.next == nil {
			newSize := growthSize(a.initialStructSize, size+align, a.structChunkCount)
			nc, err := a.newStructChunk(newSize)
			if err != nil {
				return nil, 0, err
			}
			c.next = nc
		}
	}
	return nil, 0, ikserr.NoMemory("struct chunk")
}

func alignUp(used, align int) int {
	if align <= 1 {
		return used
	}
	rem := used % align
	if rem == 0 {
		return used
	}
	return used + (align - rem)
}

// reserveCData walks the cdata chain for a chunk with room for size more
// bytes, appending a new chunk via the growth algorithm if none is found.
func (a *Arena) reserveCData(size int) (*Chunk, int, error) {
	for c := a.cdataHead; c != nil; c = c.next {
		if c.used+size <= len(c.mem) {
			return c, c.used, nil
		}
		if c.next == nil {
			newSize := growthSize(a.initialCDataSize, size, a.cdataChunkCount)
			nc, err := a.newCDataChunk(newSize)
			if err != nil {
				return nil, 0, err
			}
			c.next = nc
		}
	}
	return nil, 0, ikserr.NoMemory("cdata chunk")
}

// AllocStruct returns a pointer to a freshly reserved, zeroed region of
// the arena sized and aligned for T. The caller is responsible for
// initializing it; nothing in this package ever runs a finalizer over
// arena-allocated memory.
func AllocStruct[T any](a *Arena) (result *T, err error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	c, off, err := a.reserveStruct(size, align)
	if err != nil {
		return nil, err
	}
	err = d.Try(func() {
		d.PanicIfTrue(off < 0 || off+size > len(c.mem))
		clear(c.mem[off : off+size]) // memory reused after Reset may hold old bytes
		c.last = off
		c.used = off + size
		result = (*T)(unsafe.Pointer(&c.mem[off]))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PushString copies s into the cdata chain and returns a borrow of the
// copy. The returned string's lifetime must not outlive the arena, and is
// invalidated by Reset.
func (a *Arena) PushString(s string) (result string, err error) {
	if len(s) == 0 {
		return "", nil
	}
	c, off, err := a.reserveCData(len(s))
	if err != nil {
		return "", err
	}
	err = d.Try(func() {
		d.PanicIfTrue(off < 0 || off+len(s) > len(c.mem))
		copy(c.mem[off:off+len(s)], s)
		c.last = off
		c.used = off + len(s)
		result = unsafe.String(&c.mem[off], len(s))
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// ConcatString implements the adjacent-string extension contract: if old
// is the most recently returned allocation in some cdata chunk and that
// chunk has room for len(add) more bytes, add is appended in place and the
// returned borrow spans both old and add without growing the chunk chain.
// Otherwise fresh space is allocated, both strings are copied into it, and
// a borrow spanning the copy is returned.
func (a *Arena) ConcatString(old, add string) (string, error) {
	if len(add) == 0 {
		return old, nil
	}
	if len(old) == 0 {
		return a.PushString(add)
	}
	if c := a.findAdjacentChunk(old, len(add)); c != nil {
		base := c.used
		var result string
		err := d.Try(func() {
			d.PanicIfTrue(base < 0 || base+len(add) > len(c.mem))
			copy(c.mem[base:base+len(add)], add)
			c.used = base + len(add)
			result = unsafe.String(&c.mem[c.last], len(old)+len(add))
		})
		if err != nil {
			return "", err
		}
		return result, nil
	}
	fresh := make([]byte, 0, len(old)+len(add))
	fresh = append(fresh, old...)
	fresh = append(fresh, add...)
	return a.PushString(string(fresh))
}

// findAdjacentChunk returns the cdata chunk whose last allocation was old
// and which has room for addLen more bytes, or nil if no such chunk
// exists. This is the adjacency test from §4.1: c.last == old.ptr,
// c.mem+c.used == old.ptr+old.len, and c.used+addLen <= c.size.
func (a *Arena) findAdjacentChunk(old string, addLen int) *Chunk {
	if len(old) == 0 {
		return nil
	}
	ptr := unsafe.Pointer(unsafe.StringData(old))
	for c := a.cdataHead; c != nil; c = c.next {
		if len(c.mem) == 0 {
			continue
		}
		base := unsafe.Pointer(&c.mem[0])
		offset := int(uintptr(ptr) - uintptr(base))
		if offset < 0 || offset >= len(c.mem) {
			continue
		}
		if c.last == offset && c.used == offset+len(old) && c.used+addLen <= len(c.mem) {
			return c
		}
	}
	return nil
}

// Stats reports chunk count, total allocated bytes and total used bytes
// across both chains.
func (a *Arena) Stats() Stats {
	s := Stats{}
	for c := a.structHead; c != nil; c = c.next {
		s.Chunks++
		s.Allocated += len(c.mem)
		s.Used += c.used
	}
	for c := a.cdataHead; c != nil; c = c.next {
		s.Chunks++
		s.Allocated += len(c.mem)
		s.Used += c.used
	}
	return s
}

// Reset returns the arena to the empty state without freeing any chunk.
// Every previously returned borrow and pointer is invalidated; the
// implementation does not and cannot enforce this, so it is the caller's
// responsibility to drop a Document (and all of its Cursors) before
// calling Reset on its Arena.
func (a *Arena) Reset() {
	for c := a.structHead; c != nil; c = c.next {
		c.used = 0
		c.last = -1
	}
	for c := a.cdataHead; c != nil; c = c.next {
		c.used = 0
		c.last = -1
	}
}
