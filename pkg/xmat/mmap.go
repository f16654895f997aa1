package xmat

import (
	"os"

	"golang.org/x/sys/unix"
)

// OpenMapped maps path read-only and returns a read-mode ByteStream over the
// mapping. If mmap is unavailable the file is read into memory instead.
// Closing the stream releases the mapping.
func OpenMapped(path string, e Endian) (*ByteStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size > 0 && size <= int64(int(^uint(0)>>1)) {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			s := NewByteReader(data, e)
			s.release = func() error { return unix.Munmap(data) }
			return s, nil
		}
	}

	// Empty files cannot be mapped.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewByteReader(data, e), nil
}
