// Package mmap maps page files read-only into memory.
//
// A read-only page store serves page slots directly from the mapping instead
// of issuing a pread per page:
//
//	m, err := mmap.Open("index.rst")
//	if err != nil { ... }
//	defer m.Close()
//
//	slot, err := m.Slice(int64(id)*pageSize, pageSize)
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there. Slices returned by Bytes and Slice
// are invalid after Close.
package mmap
