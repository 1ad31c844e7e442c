package d

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testError struct{ s string }

func (e testError) Error() string { return e.s }

func TestTryRecoversError(t *testing.T) {
	err := Try(func() {
		PanicIfError(testError{"boom"})
	})
	assert.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestTryRecoversNonError(t *testing.T) {
	err := Try(func() {
		panic("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestTryCleanReturn(t *testing.T) {
	err := Try(func() {
		PanicIfError(nil)
	})
	assert.NoError(t, err)
}

func TestPanicIfTrue(t *testing.T) {
	assert.Panics(t, func() { PanicIfTrue(true) })
	assert.NotPanics(t, func() { PanicIfTrue(false) })
}

func TestPanicIfFalse(t *testing.T) {
	assert.Panics(t, func() { PanicIfFalse(false) })
	assert.NotPanics(t, func() { PanicIfFalse(true) })
}

func TestWrapUnwrap(t *testing.T) {
	base := errors.New("root cause")
	w := Wrap(base)
	assert.Equal(t, base, Unwrap(w))
	assert.Equal(t, w, Wrap(w))
	assert.Nil(t, Wrap(nil))
}

func TestPanicFormats(t *testing.T) {
	err := Try(func() {
		Panic("bad value: %d", 42)
	})
	assert.EqualError(t, err, "bad value: 42")
}
