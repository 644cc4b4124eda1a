package rlp

import (
	"encoding/binary"
	"errors"
)

var (
	ErrUnexpectedEOF = errors.New("rlp: unexpected end of input")
	ErrExpectedList  = errors.New("rlp: expected list")
	ErrExpectedBytes = errors.New("rlp: expected byte string")
)

// Stream reads successive RLP items out of a byte slice, tracking list
// nesting the way callers decode a struct field-by-field.
type Stream struct {
	data []byte
	pos  int
	// ends holds the byte offset each currently-open list must stop at.
	ends []int
}

func NewStream(data []byte) *Stream { return &Stream{data: data} }

func (s *Stream) atEnd() bool {
	if len(s.ends) > 0 && s.pos >= s.ends[len(s.ends)-1] {
		return true
	}
	return s.pos >= len(s.data)
}

// readHeader reads the next item's kind header, returning whether it's a
// list, and the content's [start,end) byte range.
func (s *Stream) readHeader() (isList bool, start, end int, err error) {
	if s.pos >= len(s.data) {
		return false, 0, 0, ErrUnexpectedEOF
	}
	b := s.data[s.pos]
	switch {
	case b < 0x80:
		return false, s.pos, s.pos + 1, nil
	case b < 0xb8:
		n := int(b - 0x80)
		start = s.pos + 1
		end = start + n
		return false, start, end, s.checkRange(end)
	case b < 0xc0:
		lenOfLen := int(b - 0xb7)
		n, err := s.readBigEndianLen(s.pos+1, lenOfLen)
		if err != nil {
			return false, 0, 0, err
		}
		start = s.pos + 1 + lenOfLen
		end = start + n
		return false, start, end, s.checkRange(end)
	case b < 0xf8:
		n := int(b - 0xc0)
		start = s.pos + 1
		end = start + n
		return true, start, end, s.checkRange(end)
	default:
		lenOfLen := int(b - 0xf7)
		n, err := s.readBigEndianLen(s.pos+1, lenOfLen)
		if err != nil {
			return false, 0, 0, err
		}
		start = s.pos + 1 + lenOfLen
		end = start + n
		return true, start, end, s.checkRange(end)
	}
}

func (s *Stream) checkRange(end int) error {
	if end > len(s.data) {
		return ErrUnexpectedEOF
	}
	return nil
}

func (s *Stream) readBigEndianLen(off, n int) (int, error) {
	if off+n > len(s.data) {
		return 0, ErrUnexpectedEOF
	}
	var buf [8]byte
	copy(buf[8-n:], s.data[off:off+n])
	return int(binary.BigEndian.Uint64(buf[:])), nil
}

// List enters a list item, returning its content length in bytes, and
// advances the stream position past the header to the first element.
func (s *Stream) List() (size int, err error) {
	isList, start, end, err := s.readHeader()
	if err != nil {
		return 0, err
	}
	if !isList {
		return 0, ErrExpectedList
	}
	s.ends = append(s.ends, end)
	s.pos = start
	return end - start, nil
}

// ListEnd closes the innermost open list, skipping any trailing fields the
// caller didn't read — forward-compatible with headers that grow fields.
func (s *Stream) ListEnd() error {
	if len(s.ends) == 0 {
		return errors.New("rlp: no open list")
	}
	end := s.ends[len(s.ends)-1]
	s.ends = s.ends[:len(s.ends)-1]
	s.pos = end
	return nil
}

// Bytes reads the next item as a byte string.
func (s *Stream) Bytes() ([]byte, error) {
	isList, start, end, err := s.readHeader()
	if err != nil {
		return nil, err
	}
	if isList {
		return nil, ErrExpectedBytes
	}
	out := make([]byte, end-start)
	copy(out, s.data[start:end])
	s.pos = end
	return out, nil
}

// Uint64 reads the next item as an unsigned integer in Ethereum's minimal
// big-endian encoding (the empty string decodes to 0).
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, errors.New("rlp: uint64 overflow")
	}
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return binary.BigEndian.Uint64(buf[:]), nil
}

// More reports whether the innermost open list (or the stream, at depth 0)
// has another item to read.
func (s *Stream) More() bool { return !s.atEnd() }
