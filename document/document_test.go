package document

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikscore/ikscore/ikscfg"
	"github.com/ikscore/ikscore/ikserr"
	"github.com/ikscore/ikscore/internal/xmlcheck"
)

func TestNewCreatesRootTag(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	assert.True(t, root.IsTag())
	assert.Equal(t, "root", root.Name())
	assert.True(t, root.FirstChild().IsNull())
}

func TestInsertTagAndAttribute(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	child, err := root.InsertTag("child")
	require.NoError(t, err)
	require.NoError(t, child.InsertAttribute("id", "1"))
	v, ok := child.Attribute("id")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	assert.Equal(t, "<root><child id=\"1\"/></root>", root.String())
}

func TestDuplicateAttributeRejected(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	require.NoError(t, root.InsertAttribute("a", "1"))
	err = root.InsertAttribute("a", "2")
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescDuplicateAttribute))
}

func TestSetAttributeReplaceAddRemove(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()

	v1 := "1"
	require.NoError(t, root.SetAttribute("a", &v1))
	val, ok := root.Attribute("a")
	require.True(t, ok)
	assert.Equal(t, "1", val)

	v2 := "2"
	require.NoError(t, root.SetAttribute("a", &v2))
	val, ok = root.Attribute("a")
	require.True(t, ok)
	assert.Equal(t, "2", val)

	require.NoError(t, root.SetAttribute("a", nil))
	_, ok = root.Attribute("a")
	assert.False(t, ok)

	// removing an absent attribute is a no-op, not an error.
	require.NoError(t, root.SetAttribute("a", nil))
}

func TestCDataInsertAndNavigation(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	_, err = root.InsertCData("hello")
	require.NoError(t, err)
	text := root.FirstChild()
	assert.False(t, text.IsTag())
	assert.Equal(t, "hello", text.CData())
}

func TestAppendPrependTagSiblings(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	mid, err := root.InsertTag("mid")
	require.NoError(t, err)
	_, err = mid.AppendTag("after")
	require.NoError(t, err)
	_, err = mid.PrependTag("before")
	require.NoError(t, err)

	names := []string{}
	for c := root.FirstChild(); !c.IsNull(); c = c.Next() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"before", "mid", "after"}, names)
}

// TestTreeBuildAppendPrependCDataAndSerialize builds html/p/b/blink/lala,
// appends a CData run and a sibling tag after p, then prepends a tag and a
// CData run immediately before that sibling, and checks the serialized
// result against the tree-build-and-serialize scenario.
func TestTreeBuildAppendPrependCDataAndSerialize(t *testing.T) {
	doc, err := New("html")
	require.NoError(t, err)
	root := doc.Root()

	p, err := root.InsertTag("p")
	require.NoError(t, err)
	b, err := p.InsertTag("b")
	require.NoError(t, err)
	blink, err := b.InsertTag("blink")
	require.NoError(t, err)
	_, err = blink.InsertCData("lala")
	require.NoError(t, err)

	foo, err := p.AppendCData("foo&")
	require.NoError(t, err)
	p2, err := foo.AppendTag("p2")
	require.NoError(t, err)

	_, err = p2.PrependTag("p3")
	require.NoError(t, err)
	_, err = p2.PrependCData("bar")
	require.NoError(t, err)

	assert.Equal(t, "<html><p><b><blink>lala</blink></b></p>foo&amp;<p3/>bar<p2/></html>", root.String())
}

func TestAppendTagOnRootFails(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	_, err = doc.Root().AppendTag("sibling")
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescNoDocument))
}

func TestRemoveUnlinksNode(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	a, err := root.InsertTag("a")
	require.NoError(t, err)
	_, err = root.InsertTag("b")
	require.NoError(t, err)

	require.NoError(t, a.Remove())
	var names []string
	for c := root.FirstChild(); !c.IsNull(); c = c.Next() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"b"}, names)
}

func TestNextTagSkipsCData(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	_, err = root.InsertTag("a")
	require.NoError(t, err)
	_, err = root.InsertCData("text")
	require.NoError(t, err)
	_, err = root.InsertTag("b")
	require.NoError(t, err)

	first := root.FirstTag()
	assert.Equal(t, "a", first.Name())
	second := first.NextTag()
	assert.Equal(t, "b", second.Name())
}

func TestFindTag(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	_, err = root.InsertTag("a")
	require.NoError(t, err)
	_, err = root.InsertTag("target")
	require.NoError(t, err)

	found := root.FindTag("target")
	assert.False(t, found.IsNull())
	assert.Equal(t, "target", found.Name())
	assert.True(t, root.FindTag("missing").IsNull())
}

func TestStrSizeMatchesStringLength(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	child, err := root.InsertTag("child")
	require.NoError(t, err)
	require.NoError(t, child.InsertAttribute("a", `<"&'>`))
	_, err = child.InsertCData("some & text")
	require.NoError(t, err)

	s := root.String()
	assert.Equal(t, len(s), root.StrSize())
}

func TestEscapingRules(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	root := doc.Root()
	_, err = root.InsertCData(`<a>&'"`)
	require.NoError(t, err)
	assert.Equal(t, "<root>&lt;a&gt;&amp;&apos;&quot;</root>", root.String())
}

func TestBuilderParsesDocumentFromBytes(t *testing.T) {
	doc, err := Parse([]byte(`<root a="1"><child/>text</root>`))
	require.NoError(t, err)
	root := doc.Root()
	assert.Equal(t, "root", root.Name())
	v, ok := root.Attribute("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	child := root.FirstChild()
	assert.Equal(t, "child", child.Name())
	text := child.Next()
	assert.Equal(t, "text", text.CData())
}

func TestBuilderMergesConsecutiveCData(t *testing.T) {
	doc, err := Parse([]byte(`<root>a&amp;b</root>`))
	require.NoError(t, err)
	root := doc.Root()
	// a reference expansion flushes a separate CData event from the
	// surrounding text; the builder must still merge them into one node.
	assert.Equal(t, "a&b", root.FirstChild().CData())
	assert.True(t, root.FirstChild().Next().IsNull())
}

func TestBuilderTagMismatch(t *testing.T) {
	_, err := Parse([]byte(`<a></b>`))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescTagMismatch))
}

func TestBuilderDuplicateAttribute(t *testing.T) {
	_, err := Parse([]byte(`<a x="1" x="2"/>`))
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescDuplicateAttribute))
}

func TestParseWithConfigRejectsEpilogDoctypeByDefault(t *testing.T) {
	_, err := ParseWithConfig([]byte(`<root/><!DOCTYPE root>`), ikscfg.Default())
	require.Error(t, err)
	assert.True(t, ikserr.IsBadXML(err, ikserr.DescMarkupDoctypeBadStart))
}

func TestParseWithConfigAllowsEpilogDoctypeWhenNotStrict(t *testing.T) {
	cfg := ikscfg.Default()
	cfg.StrictEpilogDoctype = false
	doc, err := ParseWithConfig([]byte(`<root/><!DOCTYPE root>`), cfg)
	require.NoError(t, err)
	assert.Equal(t, "root", doc.Root().Name())
}

func TestParallelDocumentsDoNotCollide(t *testing.T) {
	// each subtest gets its own root tag name so failures are
	// unambiguous about which parallel run produced them.
	for i := 0; i < 4; i++ {
		rootName := "doc-" + uuid.New().String()
		t.Run(rootName, func(t *testing.T) {
			t.Parallel()
			doc, err := New(rootName)
			require.NoError(t, err)
			assert.Equal(t, rootName, doc.Root().Name())
		})
	}
}

func TestRoundTripSerialization(t *testing.T) {
	input := `<a x="1"><b/><c>hi</c></a>`
	doc, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, input, doc.Root().String())
}

func TestSerializationRoundTripsThroughIndependentParser(t *testing.T) {
	input := `<catalog id="1"><item name="widget">a &amp; b</item><item name="gadget"/></catalog>`
	doc, err := Parse([]byte(input))
	require.NoError(t, err)
	require.NoError(t, xmlcheck.RoundTrips([]byte(input), []byte(doc.Root().String())))
}
