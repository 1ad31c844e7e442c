package sax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikscore/ikscore/ikserr"
)

func parseAll(t *testing.T, input string) []event {
	t.Helper()
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte(input))
	require.NoError(t, err)
	return coalesced(h.events)
}

func TestEmptyElement(t *testing.T) {
	got := parseAll(t, "<lonely/>")
	assert.Equal(t, []event{startTag("lonely"), emptyElementTag()}, got)
}

func TestNestedWithText(t *testing.T) {
	got := parseAll(t, "<parent><child/><child/>child</parent>")
	assert.Equal(t, []event{
		startTag("parent"),
		startTag("child"), emptyElementTag(),
		startTag("child"), emptyElementTag(),
		cdata("child"),
		endTag("parent"),
	}, got)
}

func TestAttributesWithReferences(t *testing.T) {
	got := parseAll(t, `<a b='a&amp;b &#x42;&#65;'></a>`)
	assert.Equal(t, []event{
		startTag("a"),
		attribute("b", "a&b BA"),
		endTag("a"),
	}, got)
}

func TestCDataSectionEdgeCase(t *testing.T) {
	got := parseAll(t, `<data><![CDATA[[TEST]]]]></data>`)
	assert.Equal(t, []event{
		startTag("data"),
		cdata("[TEST]]"),
		endTag("data"),
	}, got)
}

func TestPlainTextContent(t *testing.T) {
	got := parseAll(t, "<p>hello world</p>")
	assert.Equal(t, []event{startTag("p"), cdata("hello world"), endTag("p")}, got)
}

func TestCommentsAndPIsAreIgnored(t *testing.T) {
	got := parseAll(t, "<?xml version='1.0'?><!-- a comment --><root><!--inner--></root>")
	assert.Equal(t, []event{startTag("root"), endTag("root")}, got)
}

func TestDoctypeWithInternalSubsetIsSkipped(t *testing.T) {
	got := parseAll(t, `<!DOCTYPE root [ <!ELEMENT root (#PCDATA)> ]><root/>`)
	assert.Equal(t, []event{startTag("root"), emptyElementTag()}, got)
}

func TestDoctypeInEpilogIsRejectedByDefault(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte(`<root/><!DOCTYPE root>`))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescMarkupDoctypeBadStart))
}

func TestDoctypeInEpilogAllowedWhenConfigured(t *testing.T) {
	p := New()
	p.SetAllowEpilogDoctype(true)
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte(`<root/><!DOCTYPE root>`))
	require.NoError(t, err)
	assert.Equal(t, []event{startTag("root"), emptyElementTag()}, coalesced(h.events))
}

func TestByteAtATimeFeedMatchesWholeSliceFeed(t *testing.T) {
	input := `<a x="1"><b/>te&amp;xt<![CDATA[raw]]></a>`
	whole := parseAll(t, input)

	p := New()
	h := &recordingHandler{}
	for i := 0; i < len(input); i++ {
		require.NoError(t, p.ParseBytes(h, []byte{input[i]}))
	}
	require.NoError(t, p.ParseFinish())
	assert.Equal(t, whole, coalesced(h.events))
}

func TestSplitAcrossMultipleChunks(t *testing.T) {
	input := `<root>some long text content here</root>`
	whole := parseAll(t, input)

	for split := 1; split < len(input); split++ {
		p := New()
		h := &recordingHandler{}
		require.NoError(t, p.ParseBytes(h, []byte(input[:split])))
		require.NoError(t, p.ParseBytes(h, []byte(input[split:])))
		require.NoError(t, p.ParseFinish())
		assert.Equal(t, whole, coalesced(h.events), "split at %d", split)
	}
}

func TestLocationTracksLineAndColumn(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	require.NoError(t, p.ParseBytes(h, []byte("<a>\nb</a>")))
	loc := p.Location()
	assert.Equal(t, 9, loc.Bytes)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 5, loc.Column)
}

func TestBadXMLTagMismatchIsNotTokenizerLevel(t *testing.T) {
	// The tokenizer does not compare start/end tag names; it only tracks
	// nesting depth, so mismatched names parse without error here.
	got := parseAll(t, "<a></b>")
	assert.Equal(t, []event{startTag("a"), endTag("b")}, got)
}

func TestDuplicateAttributeIsNotTokenizerLevel(t *testing.T) {
	got := parseAll(t, `<a x="1" x="2"/>`)
	assert.Equal(t, []event{startTag("a"), attribute("x", "1"), attribute("x", "2"), emptyElementTag()}, got)
}

func TestCustomEntityIsBadXML(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte("<a>&custom;</a>"))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescReferenceCustomEntity))
}

func TestCloseWithoutOpenIsBadXML(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte("</a>"))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescTagCloseWithoutOpen))
}

func TestUnterminatedDocumentIsOpenTags(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	require.NoError(t, p.ParseBytes(h, []byte("<a><b>")))
	err := p.ParseFinish()
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescDocOpenTags))
}

func TestNoContentIsBadXML(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	require.NoError(t, p.ParseBytes(h, []byte("   ")))
	err := p.ParseFinish()
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescDocNoContent))
}

func TestUnterminatedCommentIsCommentMissingEnd(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	require.NoError(t, p.ParseBytes(h, []byte("<a><!-- never closes")))
	err := p.ParseFinish()
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescCommentMissingEnd))
}

func TestDoubleHyphenInCommentIsCommentMissingEnd(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte("<a><!-- a -- b --></a>"))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescCommentMissingEnd))
}

func TestSecondRootElementIsOutsideRoot(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte("<a/><b/>"))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescTagOutsideRoot))
}

func TestCDataSectionOutsideRootIsRejected(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, []byte("<![CDATA[x]]><a/>"))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescMarkupCDataOutsideRoot))
}

func TestInvalidUTF8ContinuationByte(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	err := p.ParseBytesFinish(h, append([]byte("<a>"), 0xC2, 0x20))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescUTF8InvalidContByte))
}

func TestOverlongTwoByteSequenceRejected(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	// 0xC0 0x80 looks like a valid 2-byte lead/continuation pair but
	// overlong-encodes NUL (a 1-byte code point).
	err := p.ParseBytesFinish(h, append([]byte("<a>"), 0xC0, 0x80))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescUTF8OverlongSequence))
}

func TestStrayContinuationByteAsLeadRejected(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	// 0x80 can only ever appear as a continuation byte, never a lead.
	err := p.ParseBytesFinish(h, append([]byte("<a>"), 0x80))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescUTF8InvalidPrefixByte))
}

func TestValidTwoByteUTF8Accepted(t *testing.T) {
	p := New()
	h := &recordingHandler{}
	// 0xC3 0xA9 == U+00E9 (e acute).
	err := p.ParseBytesFinish(h, append([]byte("<a>"), 0xC3, 0xA9))
	require.Error(t, err) // missing </a>, but UTF-8 itself must not fail
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescDocOpenTags))
}

func TestHandlerAbortStopsParsing(t *testing.T) {
	p := New()
	h := &recordingHandler{abortOn: "Attribute"}
	err := p.ParseBytes(h, []byte(`<a x="1" y="2"/>`))
	require.Error(t, err)
	assert.True(t, ikserr.Is(err, ikserr.KindHandlerAbort))
	// y's Attribute event must never have been produced.
	assert.Equal(t, []event{startTag("a"), attribute("x", "1")}, h.events)
}

func TestResetAllowsReuse(t *testing.T) {
	p := New()
	h1 := &recordingHandler{}
	require.NoError(t, p.ParseBytesFinish(h1, []byte("<a/>")))
	p.Reset()
	h2 := &recordingHandler{}
	require.NoError(t, p.ParseBytesFinish(h2, []byte("<b/>")))
	assert.Equal(t, []event{startTag("b"), emptyElementTag()}, h2.events)
}
