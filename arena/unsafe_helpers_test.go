package arena

import (
	"testing"
	"unsafe"
)

func unsafeDataPtr(s string) uintptr {
	return uintptr(unsafe.Pointer(unsafe.StringData(s)))
}

func uintptrOf(t *testing.T, p *point) uintptr {
	t.Helper()
	return uintptr(unsafe.Pointer(p))
}
