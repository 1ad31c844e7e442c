package sax

import "github.com/ikscore/ikscore/ikserr"

// utf8Decoder is a resumable UTF-8 decoder and XML character validator: it
// can be fed one byte at a time, possibly across separate ParseBytes calls,
// and reports a decoded rune only once a full, valid sequence has been
// seen. It rejects overlong encodings, surrogates, and code points outside
// the set of legal XML characters.
type utf8Decoder struct {
	need int // continuation bytes still expected
	got  int // continuation bytes consumed so far
	buf  [4]byte
	n    int // bytes placed in buf so far (including the lead byte)
	r    rune
	// lo/hi bound the first continuation byte, set per lead byte to
	// reject overlong sequences and surrogates without having to wait
	// for the full sequence.
	lo, hi byte
	// minCP is the lowest code point this sequence length may legally
	// encode; a fully-decoded result below it is an overlong sequence
	// that lo/hi alone don't catch (0xC0/0xC1 leads).
	minCP rune
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// feed consumes one byte. When it returns done == true, raw holds the
// complete, validated UTF-8 encoding of r (a slice into the decoder's own
// internal buffer — callers must copy it before the next call). When
// done == false and desc == "", the byte was a valid lead or continuation
// byte of a sequence still in progress. A non-empty desc means b (or an
// earlier byte of the same sequence) was invalid; the decoder is reset so
// the caller may keep going after reporting the error, though typically
// any BadXml error is fatal to the enclosing parse.
func (d *utf8Decoder) feed(b byte) (raw []byte, r rune, done bool, desc ikserr.Description) {
	if d.need == 0 {
		return d.startSequence(b)
	}
	if b < 0x80 || b > 0xBF {
		d.reset()
		return nil, 0, false, ikserr.DescUTF8InvalidContByte
	}
	if d.got == 0 && (b < d.lo || b > d.hi) {
		d.reset()
		return nil, 0, false, ikserr.DescUTF8OverlongSequence
	}
	d.buf[d.n] = b
	d.n++
	d.got++
	d.r = d.r<<6 | rune(b&0x3F)
	if d.got < d.need {
		return nil, 0, false, ""
	}
	result := d.r
	minCP := d.minCP
	raw = d.buf[:d.n]
	d.reset()
	if result < minCP {
		return nil, 0, false, ikserr.DescUTF8OverlongSequence
	}
	if result >= 0xD800 && result <= 0xDFFF {
		return nil, 0, false, ikserr.DescUTF8OverlongSequence
	}
	if !isXMLChar(result) {
		return nil, 0, false, ikserr.DescCharInvalid
	}
	return raw, result, true, ""
}

func (d *utf8Decoder) reset() {
	d.need, d.got, d.n, d.r, d.lo, d.hi, d.minCP = 0, 0, 0, 0, 0, 0, 0
}

func (d *utf8Decoder) startSequence(b byte) (raw []byte, r rune, done bool, desc ikserr.Description) {
	switch {
	case b < 0x20:
		if b == 0x09 || b == 0x0A || b == 0x0D {
			return []byte{b}, rune(b), true, ""
		}
		return nil, 0, false, ikserr.DescCharInvalid
	case b < 0x80:
		return []byte{b}, rune(b), true, ""
	case b < 0xC0:
		// 0x80-0xBF: stray continuation byte where a lead was expected.
		return nil, 0, false, ikserr.DescUTF8InvalidPrefixByte
	case b <= 0xDF:
		// 0xC0/0xC1 look like valid 2-byte leads but can only ever encode
		// a code point <= 0x7F; let them decode and catch that with the
		// minCP check below, matching how a 2-byte overlong sequence is
		// diagnosed for every other lead byte in this range.
		d.buf[0] = b
		d.n = 1
		d.need = 1
		d.r = rune(b & 0x1F)
		d.lo, d.hi = 0x80, 0xBF
		d.minCP = 0x80
		return nil, 0, false, ""
	case b <= 0xEF:
		d.buf[0] = b
		d.n = 1
		d.need = 2
		d.r = rune(b & 0x0F)
		d.minCP = 0x800
		switch b {
		case 0xE0:
			d.lo, d.hi = 0xA0, 0xBF
		case 0xED:
			d.lo, d.hi = 0x80, 0x9F // exclude the D800-DFFF surrogate block
		default:
			d.lo, d.hi = 0x80, 0xBF
		}
		return nil, 0, false, ""
	case b <= 0xF4:
		d.buf[0] = b
		d.n = 1
		d.need = 3
		d.r = rune(b & 0x07)
		d.minCP = 0x10000
		switch b {
		case 0xF0:
			d.lo, d.hi = 0x90, 0xBF
		case 0xF4:
			d.lo, d.hi = 0x80, 0x8F // cap the code point at 0x10FFFF
		default:
			d.lo, d.hi = 0x80, 0xBF
		}
		return nil, 0, false, ""
	default:
		// 0xF5-0xFF can only encode code points beyond 0x10FFFF.
		return nil, 0, false, ikserr.DescUTF8InvalidPrefixByte
	}
}
