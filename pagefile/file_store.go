package pagefile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/rstar/internal/fs"
	"github.com/hupe1980/rstar/internal/mmap"
	"github.com/hupe1980/rstar/node"
)

// slotPrefix is the length prefix in front of each frame in a slot. A zero
// length marks an empty slot.
const slotPrefix = 4

// FileStoreOptions configure OpenFileStore.
type FileStoreOptions struct {
	// ReadOnly maps the file instead of opening it for writing.
	ReadOnly bool
	// FileSystem is used for read-write files. Defaults to fs.Default.
	FileSystem fs.FileSystem
}

// FileStore keeps page id at byte offset id*pageSize of a single file.
type FileStore struct {
	path     string
	pageSize int
	f        fs.File       // nil when read-only
	m        *mmap.Mapping // nil when read-write
}

// OpenFileStore opens or creates the page file at path.
func OpenFileStore(path string, pageSize int, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{FileSystem: fs.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if pageSize <= slotPrefix+frameHeaderSize {
		return nil, fmt.Errorf("pagefile: page size %d too small", pageSize)
	}

	s := &FileStore{path: path, pageSize: pageSize}
	if opts.ReadOnly {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		if err := m.Advise(mmap.AccessRandom); err != nil {
			_ = m.Close()
			return nil, err
		}
		s.m = m
		return s, nil
	}

	f, err := opts.FileSystem.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	s.f = f
	return s, nil
}

// MaxFrameSize implements MaxFramer.
func (s *FileStore) MaxFrameSize() int { return s.pageSize - slotPrefix }

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) offset(id node.PageID) int64 { return int64(id) * int64(s.pageSize) }

func (s *FileStore) readSlot(id node.PageID) ([]byte, error) {
	off := s.offset(id)
	if s.m != nil {
		slot, err := s.m.Slice(off, s.pageSize)
		if errors.Is(err, mmap.ErrOutOfBounds) {
			return nil, ErrPageNotFound
		}
		return slot, err
	}

	slot := make([]byte, s.pageSize)
	n, err := s.f.ReadAt(slot, off)
	if errors.Is(err, io.EOF) {
		if n < slotPrefix {
			return nil, ErrPageNotFound
		}
		return slot[:n], nil
	}
	return slot, err
}

func (s *FileStore) ReadPage(_ context.Context, id node.PageID) ([]byte, error) {
	slot, err := s.readSlot(id)
	if err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint32(slot))
	if n == 0 {
		return nil, ErrPageNotFound
	}
	if n > len(slot)-slotPrefix {
		return nil, corrupt(id, fmt.Sprintf("slot length %d exceeds page", n), nil)
	}
	return append([]byte(nil), slot[slotPrefix:slotPrefix+n]...), nil
}

func (s *FileStore) WritePage(_ context.Context, id node.PageID, frame []byte) error {
	if s.f == nil {
		return ErrReadOnly
	}
	if len(frame) > s.MaxFrameSize() {
		return fmt.Errorf("%w: frame of %d bytes, page %d holds %d", ErrPageOverflow, len(frame), id, s.MaxFrameSize())
	}
	slot := make([]byte, s.pageSize)
	binary.LittleEndian.PutUint32(slot, uint32(len(frame)))
	copy(slot[slotPrefix:], frame)
	_, err := s.f.WriteAt(slot, s.offset(id))
	return err
}

func (s *FileStore) DeletePage(_ context.Context, id node.PageID) error {
	if s.f == nil {
		return ErrReadOnly
	}
	info, err := s.f.Stat()
	if err != nil {
		return err
	}
	if s.offset(id) >= info.Size() {
		return nil
	}
	var zero [slotPrefix]byte
	_, err = s.f.WriteAt(zero[:], s.offset(id))
	return err
}

func (s *FileStore) Sync(context.Context) error {
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

func (s *FileStore) Close() error {
	if s.m != nil {
		return s.m.Close()
	}
	return s.f.Close()
}
