package xmat

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// FileStream is a Stream whose cursor is the position of an *os.File.
type FileStream struct {
	f      *os.File
	mode   Mode
	endian Endian
	closed bool
}

// NewFileStream wraps an open file. The stream owns f from now on.
func NewFileStream(f *os.File, mode Mode, e Endian) *FileStream {
	return &FileStream{f: f, mode: mode, endian: e}
}

// CreateFileStream truncates or creates path for writing.
func CreateFileStream(path string, e Endian) (*FileStream, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewFileStream(f, ModeWrite, e), nil
}

// OpenFileStream opens path for reading.
func OpenFileStream(path string, e Endian) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewFileStream(f, ModeRead, e), nil
}

func (s *FileStream) Mode() Mode         { return s.mode }
func (s *FileStream) Endian() Endian     { return s.endian }
func (s *FileStream) SetEndian(e Endian) { s.endian = e }
func (s *FileStream) Name() string       { return s.f.Name() }
func (s *FileStream) Closed() bool       { return s.closed }

func (s *FileStream) WriteBytes(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != ModeWrite {
		return ErrWrongMode
	}
	return writeFull(s.f, p)
}

func (s *FileStream) ReadBytes(n int) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.mode != ModeRead {
		return nil, ErrWrongMode
	}
	if n < 0 {
		return nil, fmt.Errorf("xmat: negative read length %d", n)
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(s.f, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: wanted %d bytes, got %d", ErrOutOfBounds, n, got)
		}
		return nil, err
	}
	return buf, nil
}

func (s *FileStream) Tell() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.f.Seek(0, io.SeekCurrent)
}

func (s *FileStream) Seek(offset int64, whence int) (int64, error) {
	cur, err := s.Tell()
	if err != nil {
		return 0, err
	}
	size, err := s.Size()
	if err != nil {
		return cur, err
	}
	target, err := seekTarget(cur, size, offset, whence)
	if err != nil {
		return cur, err
	}
	return s.f.Seek(target, io.SeekStart)
}

// Size seeks to the end and back; the cursor is unchanged afterwards.
func (s *FileStream) Size() (int64, error) {
	pos, err := s.Tell()
	if err != nil {
		return 0, err
	}
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.f.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

func (s *FileStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.mode == ModeWrite {
		if err := s.f.Sync(); err != nil {
			_ = s.f.Close()
			return err
		}
	}
	return s.f.Close()
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
