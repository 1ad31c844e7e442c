package iksxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikscore/ikscore/ikscfg"
)

func TestOpenWithConfigParsesDocument(t *testing.T) {
	doc, err := OpenWithConfig([]byte(`<root a="1"><child/></root>`), ikscfg.Default())
	require.NoError(t, err)
	root := doc.Root()
	assert.Equal(t, "root", root.Name())
	v, ok := root.Attribute("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestNewCreatesEmptyDocument(t *testing.T) {
	doc, err := New("root")
	require.NoError(t, err)
	assert.Equal(t, "<root/>", doc.Root().String())
}
