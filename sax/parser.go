// Package sax implements the incremental, byte-fed XML tokenizer: a
// resumable state machine that validates UTF-8 and XML well-formedness as
// it goes and pushes StartTag/Attribute/EmptyElementTag/EndTag/CData
// events to a Handler. It never buffers the whole document; tag names and
// attribute name/value pairs are reassembled in small reusable buffers so
// that tokens split across ParseBytes calls still produce one contiguous
// string, while character data runs are flushed eagerly and may fragment
// at call boundaries.
package sax

import (
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/ikscore/ikscore/ikserr"
)

// Parser is the resumable tokenizer. The zero value is not usable; build
// one with New.
type Parser struct {
	state state
	depth int

	sawRootContent bool

	loc Location

	textBuf []byte
	nameBuf []byte

	pendingAttrName    string
	pendingEndTagName  string
	quoteChar          byte

	cdataBuf             []byte
	cdataPendingBrackets int

	prefixWant string
	prefixIdx  int

	doctypeBracketDepth int

	resumeState state

	// allowEpilogDoctype resolves the specification's open question on
	// whether a DOCTYPE declaration is legal after the root element has
	// closed. Forbidden by default; see SetAllowEpilogDoctype.
	allowEpilogDoctype bool

	utf8 utf8Decoder

	refReturn      referenceReturn
	entityBuf      [maxEntityNameLen]byte
	entityLen      int
	entityOverflow bool
	charRefValue   rune
	charRefDigits  int

	log *logrus.Entry
}

var discardLog = logrus.NewEntry(func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return l
}())

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetLogger attaches a structured logger used for Warn-level diagnostics
// when input is rejected. Passing nil restores the discarding default.
func (p *Parser) SetLogger(log *logrus.Entry) {
	if log == nil {
		log = discardLog
	}
	p.log = log
}

// New returns a Parser ready to consume a fresh document starting at the
// prolog.
func New() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// Reset discards all in-progress parse state and returns the parser to
// the state New produces, reusing its internal buffers' backing arrays.
func (p *Parser) Reset() {
	textBuf := p.textBuf[:0]
	nameBuf := p.nameBuf[:0]
	cdataBuf := p.cdataBuf[:0]
	allowEpilogDoctype := p.allowEpilogDoctype
	log := p.log
	*p = Parser{}
	p.state = stateProlog
	p.loc = Location{Line: 1, Column: 0}
	p.textBuf = textBuf
	p.nameBuf = nameBuf
	p.cdataBuf = cdataBuf
	p.allowEpilogDoctype = allowEpilogDoctype
	if log == nil {
		log = discardLog
	}
	p.log = log
}

// SetAllowEpilogDoctype controls whether a DOCTYPE declaration
// encountered after the root element has closed is accepted instead of
// rejected with MARKUP_DOCTYPE_BAD_START. The default, matching
// ikscfg.Config.StrictEpilogDoctype's default of true, is to reject it.
func (p *Parser) SetAllowEpilogDoctype(allow bool) {
	p.allowEpilogDoctype = allow
}

// Location reports the position of the most recently consumed byte.
func (p *Parser) Location() Location {
	return p.loc
}

// ParseBytes feeds data to the parser, calling h for every event produced.
// data need not be a complete document or even a complete token; the next
// call to ParseBytes continues exactly where this one left off. Character
// data runs pending at the end of data are flushed as a CData event
// before returning, even if more text immediately follows in the next
// call.
func (p *Parser) ParseBytes(h Handler, data []byte) error {
	for i := 0; i < len(data); {
		b := data[i]
		redo, err := p.step(h, b)
		if err != nil {
			p.log.WithFields(logrus.Fields{"location": p.loc, "error": err}).Warn("sax: rejecting malformed input")
			return err
		}
		if !redo {
			i++
			p.advance(b)
		}
	}
	if err := p.flushText(h); err != nil {
		return err
	}
	if err := p.flushCDataSection(h); err != nil {
		return err
	}
	return nil
}

// ParseFinish checks that the document seen so far is complete: a root
// element was opened and closed, and the tokenizer isn't sitting inside
// an unterminated construct. It does not consume any bytes and may be
// called repeatedly.
func (p *Parser) ParseFinish() error {
	if !p.sawRootContent {
		return ikserr.BadXML(ikserr.DescDocNoContent)
	}
	if p.depth > 0 {
		return ikserr.BadXML(ikserr.DescDocOpenTags)
	}
	switch p.state {
	case stateEpilog:
		return nil
	case stateCommentStart, stateCommentBody, stateCommentDash1, stateCommentDash2:
		return ikserr.BadXML(ikserr.DescCommentMissingEnd)
	case statePI, statePIMaybeEnd:
		return ikserr.BadXML(ikserr.DescPIMissingEnd)
	default:
		return ikserr.BadXML(ikserr.DescDocOpenMarkup)
	}
}

// ParseBytesFinish is ParseBytes followed by ParseFinish, for callers that
// know data is the entire document.
func (p *Parser) ParseBytesFinish(h Handler, data []byte) error {
	if err := p.ParseBytes(h, data); err != nil {
		return err
	}
	return p.ParseFinish()
}

func (p *Parser) advance(b byte) {
	p.loc.Bytes++
	if b == '\n' {
		p.loc.Line++
		p.loc.Column = 0
	} else {
		p.loc.Column++
	}
}

func (p *Parser) flushText(h Handler) error {
	if len(p.textBuf) == 0 {
		return nil
	}
	s := string(p.textBuf)
	p.textBuf = p.textBuf[:0]
	if err := h.CData(s); err != nil {
		return ikserr.HandlerAbort(err)
	}
	return nil
}

func (p *Parser) flushCDataSection(h Handler) error {
	if len(p.cdataBuf) == 0 {
		return nil
	}
	s := string(p.cdataBuf)
	p.cdataBuf = p.cdataBuf[:0]
	if err := h.CData(s); err != nil {
		return ikserr.HandlerAbort(err)
	}
	return nil
}

func (p *Parser) appendChar(dst *[]byte, b byte) error {
	raw, _, done, desc := p.utf8.feed(b)
	if desc != "" {
		return ikserr.BadXML(desc)
	}
	if done {
		*dst = append(*dst, raw...)
	}
	return nil
}

func isWS(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

func isNameTerminator(b byte) bool { return isWS(b) || b == '>' || b == '/' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	default:
		return 0, false
	}
}

// step processes one byte in the current state. redo == true means the
// caller must invoke step again with the same byte (the byte was not
// consumed, only the state changed); it is how the machine handles
// lookahead without a separate pushback buffer.
func (p *Parser) step(h Handler, b byte) (redo bool, err error) {
	switch p.state {
	case stateProlog:
		return p.prologOrEpilog(b, false)
	case stateEpilog:
		return p.prologOrEpilog(b, true)
	case stateTagStart:
		return p.stepTagStart(h, b)
	case stateMarkup:
		return p.stepMarkup(b)
	case stateDoctypePrefix:
		return p.stepDoctypePrefix(b)
	case stateDoctypeWhitespace:
		return p.stepDoctypeWhitespace(b)
	case stateDoctypeSkip:
		return p.stepDoctypeSkip(b)
	case stateDoctypeBracket:
		return p.stepDoctypeBracket(b)
	case stateCommentStart:
		return p.stepCommentStart(b)
	case stateCommentBody:
		return p.stepCommentBody(b)
	case stateCommentDash1:
		return p.stepCommentDash1(b)
	case stateCommentDash2:
		return p.stepCommentDash2(b)
	case stateCDataPrefix:
		return p.stepCDataPrefix(b)
	case stateCDataBody:
		return p.stepCDataBody(h, b)
	case statePI:
		return p.stepPI(b)
	case statePIMaybeEnd:
		return p.stepPIMaybeEnd(b)
	case stateTagName:
		return p.stepTagName(h, b)
	case stateEndTagName:
		return p.stepEndTagName(h, b)
	case stateEndTagWhitespace:
		return p.stepEndTagWhitespace(h, b)
	case stateEmptyTagEnd:
		return p.stepEmptyTagEnd(h, b)
	case stateAttributeWhitespace:
		return p.stepAttributeWhitespace(b)
	case stateAttributeName:
		return p.stepAttributeName(b)
	case stateAttributeNameWhitespace:
		return p.stepAttributeNameWhitespace(b)
	case stateAttributeEq:
		return p.stepAttributeEq(b)
	case stateAttributeValue:
		return p.stepAttributeValue(h, b)
	case stateReference:
		return p.stepReference(b)
	case stateEntity:
		return p.stepEntity(h, b)
	case stateCharReference:
		return p.stepCharReference(b)
	case stateCharReferenceBody:
		return p.stepCharReferenceBody(h, b)
	case stateHexCharReference:
		return p.stepHexCharReference(h, b)
	case stateCharData:
		return p.stepCharData(h, b)
	default:
		panic("sax: unreachable parser state")
	}
}

func (p *Parser) prologOrEpilog(b byte, epilog bool) (bool, error) {
	if isWS(b) {
		return false, nil
	}
	if b == '<' {
		if epilog {
			p.resumeState = stateEpilog
		} else {
			p.resumeState = stateProlog
		}
		p.state = stateTagStart
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescTagOutsideRoot)
}

func (p *Parser) stepTagStart(h Handler, b byte) (bool, error) {
	switch {
	case b == '/':
		p.nameBuf = p.nameBuf[:0]
		p.state = stateEndTagName
		return false, nil
	case b == '!':
		p.state = stateMarkup
		return false, nil
	case b == '?':
		p.state = statePI
		return false, nil
	case isWS(b):
		return false, ikserr.BadXML(ikserr.DescTagWhitespaceStart)
	default:
		if p.depth == 0 && p.sawRootContent {
			return false, ikserr.BadXML(ikserr.DescTagOutsideRoot)
		}
		p.nameBuf = p.nameBuf[:0]
		p.state = stateTagName
		return true, nil
	}
}

func (p *Parser) stepMarkup(b byte) (bool, error) {
	switch b {
	case '-':
		p.state = stateCommentStart
		return false, nil
	case '[':
		if p.depth == 0 {
			return false, ikserr.BadXML(ikserr.DescMarkupCDataOutsideRoot)
		}
		p.prefixWant = "CDATA["
		p.prefixIdx = 0
		p.cdataBuf = p.cdataBuf[:0]
		p.cdataPendingBrackets = 0
		p.state = stateCDataPrefix
		return false, nil
	case 'D':
		if p.depth > 0 || (p.sawRootContent && !p.allowEpilogDoctype) {
			return false, ikserr.BadXML(ikserr.DescMarkupDoctypeBadStart)
		}
		p.prefixWant = "OCTYPE"
		p.prefixIdx = 0
		p.state = stateDoctypePrefix
		return false, nil
	default:
		return false, ikserr.BadXML(ikserr.DescMarkupUnrecognized)
	}
}

func (p *Parser) stepDoctypePrefix(b byte) (bool, error) {
	if b != p.prefixWant[p.prefixIdx] {
		return false, ikserr.BadXML(ikserr.DescMarkupDoctypeBadStart)
	}
	p.prefixIdx++
	if p.prefixIdx == len(p.prefixWant) {
		p.state = stateDoctypeWhitespace
	}
	return false, nil
}

func (p *Parser) stepDoctypeWhitespace(b byte) (bool, error) {
	if !isWS(b) {
		return false, ikserr.BadXML(ikserr.DescMarkupDoctypeBadStart)
	}
	p.state = stateDoctypeSkip
	return false, nil
}

func (p *Parser) stepDoctypeSkip(b byte) (bool, error) {
	switch b {
	case '>':
		p.state = p.resumeState
		return false, nil
	case '[':
		p.doctypeBracketDepth = 1
		p.state = stateDoctypeBracket
		return false, nil
	default:
		return false, nil
	}
}

func (p *Parser) stepDoctypeBracket(b byte) (bool, error) {
	switch b {
	case '[':
		p.doctypeBracketDepth++
	case ']':
		p.doctypeBracketDepth--
		if p.doctypeBracketDepth == 0 {
			p.state = stateDoctypeSkip
		}
	}
	return false, nil
}

func (p *Parser) stepCommentStart(b byte) (bool, error) {
	if b != '-' {
		return false, ikserr.BadXML(ikserr.DescCommentMissingDash)
	}
	p.state = stateCommentBody
	return false, nil
}

func (p *Parser) stepCommentBody(b byte) (bool, error) {
	if b == '-' {
		p.state = stateCommentDash1
	}
	return false, nil
}

func (p *Parser) stepCommentDash1(b byte) (bool, error) {
	if b == '-' {
		p.state = stateCommentDash2
		return false, nil
	}
	p.state = stateCommentBody
	return true, nil
}

func (p *Parser) stepCommentDash2(b byte) (bool, error) {
	if b == '>' {
		p.state = p.resumeState
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescCommentMissingEnd)
}

func (p *Parser) stepCDataPrefix(b byte) (bool, error) {
	if b != p.prefixWant[p.prefixIdx] {
		return false, ikserr.BadXML(ikserr.DescMarkupCDataSectionBadStart)
	}
	p.prefixIdx++
	if p.prefixIdx == len(p.prefixWant) {
		p.state = stateCDataBody
	}
	return false, nil
}

func (p *Parser) stepCDataBody(h Handler, b byte) (bool, error) {
	if b == ']' {
		p.cdataPendingBrackets++
		return false, nil
	}
	if b == '>' && p.cdataPendingBrackets >= 2 {
		extra := p.cdataPendingBrackets - 2
		for i := 0; i < extra; i++ {
			p.cdataBuf = append(p.cdataBuf, ']')
		}
		p.cdataPendingBrackets = 0
		p.state = p.resumeState
		return false, p.flushCDataSection(h)
	}
	for i := 0; i < p.cdataPendingBrackets; i++ {
		p.cdataBuf = append(p.cdataBuf, ']')
	}
	p.cdataPendingBrackets = 0
	if err := p.appendChar(&p.cdataBuf, b); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Parser) stepPI(b byte) (bool, error) {
	if b == '?' {
		p.state = statePIMaybeEnd
	}
	return false, nil
}

func (p *Parser) stepPIMaybeEnd(b byte) (bool, error) {
	switch b {
	case '>':
		p.state = p.resumeState
		return false, nil
	case '?':
		return false, nil
	default:
		p.state = statePI
		return true, nil
	}
}

func (p *Parser) stepTagName(h Handler, b byte) (bool, error) {
	if isNameTerminator(b) {
		if len(p.nameBuf) == 0 {
			return false, ikserr.BadXML(ikserr.DescTagEmptyName)
		}
		name := string(p.nameBuf)
		if err := h.StartTag(name); err != nil {
			return false, ikserr.HandlerAbort(err)
		}
		p.depth++
		p.sawRootContent = true
		p.state = stateAttributeWhitespace
		return true, nil
	}
	if err := p.appendChar(&p.nameBuf, b); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Parser) stepEndTagName(h Handler, b byte) (bool, error) {
	if isWS(b) || b == '>' {
		if len(p.nameBuf) == 0 {
			return false, ikserr.BadXML(ikserr.DescTagEmptyName)
		}
		p.pendingEndTagName = string(p.nameBuf)
		if b == '>' {
			return false, p.emitEndTag(h)
		}
		p.state = stateEndTagWhitespace
		return false, nil
	}
	if err := p.appendChar(&p.nameBuf, b); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Parser) stepEndTagWhitespace(h Handler, b byte) (bool, error) {
	if isWS(b) {
		return false, nil
	}
	if b == '>' {
		return false, p.emitEndTag(h)
	}
	return false, ikserr.BadXML(ikserr.DescTagEndTagAttributes)
}

func (p *Parser) emitEndTag(h Handler) error {
	if p.depth == 0 {
		return ikserr.BadXML(ikserr.DescTagCloseWithoutOpen)
	}
	if err := h.EndTag(p.pendingEndTagName); err != nil {
		return ikserr.HandlerAbort(err)
	}
	p.depth--
	if p.depth > 0 {
		p.state = stateCharData
	} else {
		p.state = stateEpilog
	}
	return nil
}

func (p *Parser) stepEmptyTagEnd(h Handler, b byte) (bool, error) {
	switch b {
	case '>':
		if err := h.EmptyElementTag(); err != nil {
			return false, ikserr.HandlerAbort(err)
		}
		p.depth--
		if p.depth > 0 {
			p.state = stateCharData
		} else {
			p.state = stateEpilog
		}
		return false, nil
	case '/':
		return false, ikserr.BadXML(ikserr.DescTagDoubleEnd)
	default:
		return false, ikserr.BadXML(ikserr.DescTagEmptyTagMissingEnd)
	}
}

func (p *Parser) stepAttributeWhitespace(b byte) (bool, error) {
	switch {
	case isWS(b):
		return false, nil
	case b == '>':
		p.state = stateCharData
		return false, nil
	case b == '/':
		p.state = stateEmptyTagEnd
		return false, nil
	default:
		p.nameBuf = p.nameBuf[:0]
		p.state = stateAttributeName
		return true, nil
	}
}

func (p *Parser) stepAttributeName(b byte) (bool, error) {
	switch {
	case b == '=':
		if len(p.nameBuf) == 0 {
			return false, ikserr.BadXML(ikserr.DescTagAttributeBadName)
		}
		p.pendingAttrName = string(p.nameBuf)
		p.state = stateAttributeEq
		return false, nil
	case isWS(b):
		if len(p.nameBuf) == 0 {
			return false, ikserr.BadXML(ikserr.DescTagAttributeBadName)
		}
		p.pendingAttrName = string(p.nameBuf)
		p.state = stateAttributeNameWhitespace
		return false, nil
	default:
		if err := p.appendChar(&p.nameBuf, b); err != nil {
			return false, err
		}
		return false, nil
	}
}

func (p *Parser) stepAttributeNameWhitespace(b byte) (bool, error) {
	if isWS(b) {
		return false, nil
	}
	if b == '=' {
		p.state = stateAttributeEq
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescTagAttributeWithoutEqual)
}

func (p *Parser) stepAttributeEq(b byte) (bool, error) {
	if isWS(b) {
		return false, nil
	}
	if b == '\'' || b == '"' {
		p.quoteChar = b
		p.nameBuf = p.nameBuf[:0]
		p.state = stateAttributeValue
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescTagAttributeWithoutQuote)
}

func (p *Parser) stepAttributeValue(h Handler, b byte) (bool, error) {
	if b == p.quoteChar {
		value := string(p.nameBuf)
		if err := h.Attribute(p.pendingAttrName, value); err != nil {
			return false, ikserr.HandlerAbort(err)
		}
		p.state = stateAttributeWhitespace
		return false, nil
	}
	if b == '<' {
		return false, ikserr.BadXML(ikserr.DescTagAttributeBadValue)
	}
	if b == '&' {
		p.refReturn = returnToAttributeValue
		p.state = stateReference
		return false, nil
	}
	if err := p.appendChar(&p.nameBuf, b); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Parser) stepCharData(h Handler, b byte) (bool, error) {
	if b == '<' {
		if err := p.flushText(h); err != nil {
			return false, err
		}
		p.resumeState = stateCharData
		p.state = stateTagStart
		return false, nil
	}
	if b == '&' {
		if err := p.flushText(h); err != nil {
			return false, err
		}
		p.refReturn = returnToCharData
		p.state = stateReference
		return false, nil
	}
	if err := p.appendChar(&p.textBuf, b); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Parser) stepReference(b byte) (bool, error) {
	if b == '#' {
		p.state = stateCharReference
		return false, nil
	}
	p.entityLen = 0
	p.entityOverflow = false
	p.state = stateEntity
	return true, nil
}

func (p *Parser) stepEntity(h Handler, b byte) (bool, error) {
	if b == ';' {
		if p.entityOverflow || p.entityLen == 0 {
			return false, ikserr.BadXML(ikserr.DescReferenceCustomEntity)
		}
		name := string(p.entityBuf[:p.entityLen])
		ch, ok := predefinedEntities[name]
		if !ok {
			return false, ikserr.BadXML(ikserr.DescReferenceCustomEntity)
		}
		return false, p.emitReferenceBytes(h, []byte{ch})
	}
	if p.entityLen >= maxEntityNameLen {
		p.entityOverflow = true
		return false, nil
	}
	p.entityBuf[p.entityLen] = b
	p.entityLen++
	return false, nil
}

func (p *Parser) stepCharReference(b byte) (bool, error) {
	if b == 'x' || b == 'X' {
		p.charRefValue = 0
		p.charRefDigits = 0
		p.state = stateHexCharReference
		return false, nil
	}
	if isDigit(b) {
		p.charRefValue = rune(b - '0')
		p.charRefDigits = 1
		p.state = stateCharReferenceBody
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescReferenceInvalidDecimal)
}

func (p *Parser) stepCharReferenceBody(h Handler, b byte) (bool, error) {
	if b == ';' {
		if p.charRefDigits == 0 {
			return false, ikserr.BadXML(ikserr.DescReferenceInvalidDecimal)
		}
		return false, p.emitReferenceRune(h, p.charRefValue)
	}
	if isDigit(b) {
		p.charRefValue = p.charRefValue*10 + rune(b-'0')
		p.charRefDigits++
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescReferenceInvalidDecimal)
}

func (p *Parser) stepHexCharReference(h Handler, b byte) (bool, error) {
	if b == ';' {
		if p.charRefDigits == 0 {
			return false, ikserr.BadXML(ikserr.DescReferenceInvalidHex)
		}
		return false, p.emitReferenceRune(h, p.charRefValue)
	}
	if v, ok := hexVal(b); ok {
		p.charRefValue = p.charRefValue*16 + rune(v)
		p.charRefDigits++
		return false, nil
	}
	return false, ikserr.BadXML(ikserr.DescReferenceInvalidHex)
}

func (p *Parser) emitReferenceRune(h Handler, r rune) error {
	if !isXMLChar(r) {
		return ikserr.BadXML(ikserr.DescCharInvalid)
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return p.emitReferenceBytes(h, buf[:n])
}

func (p *Parser) emitReferenceBytes(h Handler, raw []byte) error {
	switch p.refReturn {
	case returnToAttributeValue:
		p.nameBuf = append(p.nameBuf, raw...)
		p.state = stateAttributeValue
	default:
		if err := h.CData(string(raw)); err != nil {
			return ikserr.HandlerAbort(err)
		}
		p.state = stateCharData
	}
	return nil
}
