package sys

import (
	"unsafe"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
)

// maxRWCount clamps read/write sizes the way the Linux kernel does, so
// a hostile count cannot drive an unbounded host allocation. Transfer
// buffers are heap-allocated after this bound and an AddrOK probe.
const maxRWCount = 0x7ffff000

// maxIovCount is the Linux UIO_MAXIOV.
const maxIovCount = 1024

// readPath copies a guest path, truncating at PathMax like the
// strncpy-style crossing the handlers were written against.
func readPath(e *Env, ga types.Gstr) (string, int64) {
	s, err := mm.StrncpyFromUser(e.MM, ga, linux.PathMax)
	if err != nil {
		return "", -linux.EFAULT
	}
	return s, 0
}

// copyObjIn reads a fixed-layout guest struct.
func copyObjIn(e *Env, p unsafe.Pointer, n uintptr, ga types.Gaddr) int64 {
	if err := mm.CopyFromUser(e.MM, mm.ObjBytes(p, n), ga); err != nil {
		return -linux.EFAULT
	}
	return 0
}

// copyObjOut writes a fixed-layout guest struct.
func copyObjOut(e *Env, ga types.Gaddr, p unsafe.Pointer, n uintptr) int64 {
	if err := mm.CopyToUser(e.MM, ga, mm.ObjBytes(p, n)); err != nil {
		return -linux.EFAULT
	}
	return 0
}

// rwBuffer bounds and allocates a transfer buffer for count bytes at
// ga, verifying the guest mapping first so a bogus count fails before
// the allocation instead of after it.
func rwBuffer(e *Env, ga types.Gaddr, count uint64, verify int) ([]byte, int64) {
	if count > maxRWCount {
		count = maxRWCount
	}
	if count > 0 && !e.MM.AddrOK(ga, verify) {
		return nil, -linux.EFAULT
	}
	return make([]byte, count), 0
}

// readIovecs copies and bounds a guest iovec array.
func readIovecs(e *Env, iovPtr types.Gaddr, iovcnt int) ([]linux.Iovec, int64) {
	if iovcnt < 0 || iovcnt > maxIovCount {
		return nil, -linux.EINVAL
	}
	iov := make([]linux.Iovec, iovcnt)
	if iovcnt > 0 {
		if r := copyObjIn(e, unsafe.Pointer(&iov[0]), unsafe.Sizeof(iov[0])*uintptr(iovcnt), iovPtr); r < 0 {
			return nil, r
		}
	}
	return iov, 0
}
