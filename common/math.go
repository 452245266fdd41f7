package common

import (
	"unsafe"
)

// hostLittleEndian reports whether the running machine stores multi-byte
// values least significant byte first.
var hostLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// HostLittleEndian reports whether in-memory values share the glTF byte order.
func HostLittleEndian() bool {
	return hostLittleEndian
}

// Align4 rounds n up to the next multiple of 4.
func Align4(n int) int {
	return (n + 3) &^ 3
}

// BytesAs reinterprets a byte slice as a slice of n values of type T.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source bytes, at least n*sizeof(T) long
//   - n: the number of T values
//
// Returns:
//   - []T: typed view of data, or nil if n is 0
//   - bool: false if data is too short or not aligned for T
func BytesAs[T any](data []byte, n int) ([]T, bool) {
	if n == 0 {
		return nil, true
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(data) < size*n {
		return nil, false
	}
	if uintptr(unsafe.Pointer(&data[0]))%unsafe.Alignof(zero) != 0 {
		return nil, false
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n), true
}
