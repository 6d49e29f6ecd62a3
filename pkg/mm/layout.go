package mm

import "unsafe"

// ObjBytes views a fixed-layout guest ABI struct as its raw bytes for a
// user-memory crossing. All guest structures in pkg/linux are declared
// with explicit padding so their in-memory layout on amd64 is exactly
// the wire layout.
func ObjBytes(p unsafe.Pointer, n uintptr) []byte {
	return unsafe.Slice((*byte)(p), n)
}
