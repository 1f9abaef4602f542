package serde

import (
	"encoding/binary"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Encoding is Big Endian as per the protocol
var Encoding = binary.BigEndian

// MaxVarintLen32 is the longest encoding of a 32-bit unsigned varint.
const MaxVarintLen32 = 5

// NullCursor is the INT8 value (-1) marking an absent cursor struct.
const NullCursor = 0xFF

// ReadUvarint decodes an unsigned varint (7-bit groups, least significant first)
// from the start of b. It returns the value and the number of bytes consumed.
func ReadUvarint(b []byte) (uint32, int, error) {
	var value uint32
	for i := 0; i < MaxVarintLen32; i++ {
		if i >= len(b) {
			return 0, 0, ErrUnexpectedEOF
		}
		c := b[i]
		if i == MaxVarintLen32-1 {
			// only 4 significant bits are left and the sequence must end here
			if c > 0x0F {
				return 0, 0, ErrMalformedVarint
			}
			return value | uint32(c)<<28, i + 1, nil
		}
		value |= uint32(c&0x7F) << (7 * i)
		if c < 0x80 {
			return value, i + 1, nil
		}
	}
	return 0, 0, ErrMalformedVarint
}

// AppendUvarint appends the canonical (minimal) varint encoding of v to dst.
func AppendUvarint(dst []byte, v uint32) []byte {
	return binary.AppendUvarint(dst, uint64(v))
}

// Encoder is a byte slice with an offset
type Encoder struct {
	b      []byte // Buffer to hold encoded data
	offset int    // Current position in the buffer
}

// BufferIncrement is the size of increment when buffer limit is reached
const BufferIncrement = 4096

// NewEncoder creates a new Encoder with an initial buffer
func NewEncoder() Encoder {
	return Encoder{b: make([]byte, BufferIncrement)}
}

// ensureBufferSpace ensures the buffer has enough space to accommodate the new data
func (e *Encoder) ensureBufferSpace(off int) {
	if off+e.offset > len(e.b) {
		newBuffer := make([]byte, max(len(e.b)+BufferIncrement, e.offset+off))
		copy(newBuffer, e.b)
		e.b = newBuffer
	}
}

// PutInt32 encodes an int32 value into the buffer
func (e *Encoder) PutInt32(i int32) {
	e.PutUint32(uint32(i))
}

// PutUint32 encodes a uint32 value into the buffer
func (e *Encoder) PutUint32(i uint32) {
	e.ensureBufferSpace(4)
	Encoding.PutUint32(e.b[e.offset:], i)
	e.offset += 4
}

// PutInt16 encodes an int16 value into the buffer
func (e *Encoder) PutInt16(i int16) {
	e.ensureBufferSpace(2)
	Encoding.PutUint16(e.b[e.offset:], uint16(i))
	e.offset += 2
}

// PutUint8 encodes a uint8 value into the buffer
func (e *Encoder) PutUint8(i uint8) {
	e.ensureBufferSpace(1)
	e.b[e.offset] = i
	e.offset++
}

// PutBool encodes a boolean value into the buffer
func (e *Encoder) PutBool(b bool) {
	if b {
		e.PutUint8(1)
		return
	}
	e.PutUint8(0)
}

// PutUUID encodes a 16-byte UUID
func (e *Encoder) PutUUID(id uuid.UUID) {
	e.PutBytes(id[:])
}

// PutUvarint encodes an unsigned varint
func (e *Encoder) PutUvarint(v uint32) {
	e.ensureBufferSpace(MaxVarintLen32)
	e.offset = len(AppendUvarint(e.b[:e.offset], v))
}

// PutString encodes a nullable string with an INT16 length, as used by the request header.
func (e *Encoder) PutString(s string) {
	e.PutInt16(int16(len(s)))
	e.PutBytes([]byte(s))
}

// PutCompactString encodes a string using a compressed length format
func (e *Encoder) PutCompactString(s string) {
	e.PutUvarint(uint32(len(s) + 1))
	e.PutBytes([]byte(s))
}

// PutBytes encodes a byte slice into the buffer
func (e *Encoder) PutBytes(b []byte) {
	e.ensureBufferSpace(len(b))
	copy(e.b[e.offset:], b)
	e.offset += len(b)
}

// PutCompactArrayLen encodes the length of a compact array
func (e *Encoder) PutCompactArrayLen(l int) {
	e.PutUvarint(uint32(l + 1))
}

// PutNullCompactArray encodes a null compact array
func (e *Encoder) PutNullCompactArray() {
	e.PutUvarint(0)
}

// PutLen encodes the total length of the buffer at the start
func (e *Encoder) PutLen() {
	lengthBytes := Encoding.AppendUint32([]byte{}, uint32(e.offset))
	e.b = slices.Insert(e.b[:e.offset], 0, lengthBytes...)
	e.offset += len(lengthBytes)
}

// EndStruct marks the end of a structure (used for tagged fields in KIP-482)
func (e *Encoder) EndStruct() {
	e.PutUvarint(0)
}

// Bytes returns the encoded data as a byte slice
func (e *Encoder) Bytes() []byte {
	return e.b[:e.offset]
}

// Decoder is a byte slice and offset. Reads never go past the end of the slice:
// a short buffer yields ErrUnexpectedEOF instead of a panic.
type Decoder struct {
	b      []byte
	Offset int
}

// NewDecoder creates a new Decoder from a byte slice
func NewDecoder(b []byte) Decoder {
	return Decoder{b: b}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.b) - d.Offset
}

func (d *Decoder) fail(field string, value any, err error) error {
	return NewDecodeError(field, d.Offset, value, err)
}

func (d *Decoder) next(n int, field string) ([]byte, error) {
	if n > d.Remaining() {
		return nil, d.fail(field, nil, ErrUnexpectedEOF)
	}
	res := d.b[d.Offset : d.Offset+n]
	d.Offset += n
	return res, nil
}

// Int8 decodes an int8 value from the buffer
func (d *Decoder) Int8(field string) (int8, error) {
	b, err := d.next(1, field)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// Int16 decodes an int16 value from the buffer
func (d *Decoder) Int16(field string) (int16, error) {
	b, err := d.next(2, field)
	if err != nil {
		return 0, err
	}
	return int16(Encoding.Uint16(b)), nil
}

// Int32 decodes an int32 value from the buffer
func (d *Decoder) Int32(field string) (int32, error) {
	b, err := d.next(4, field)
	if err != nil {
		return 0, err
	}
	return int32(Encoding.Uint32(b)), nil
}

// UUID decodes a 16-byte UUID from the buffer
func (d *Decoder) UUID(field string) (uuid.UUID, error) {
	b, err := d.next(16, field)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// Uvarint decodes an unsigned varint
func (d *Decoder) Uvarint(field string) (uint32, error) {
	v, n, err := ReadUvarint(d.b[d.Offset:])
	if err != nil {
		end := min(d.Offset+MaxVarintLen32, len(d.b))
		return 0, d.fail(field, d.b[d.Offset:end], err)
	}
	d.Offset += n
	return v, nil
}

// NullableString decodes a string with an INT16 length. A length of -1 is null and
// decodes to "".
func (d *Decoder) NullableString(field string) (string, error) {
	l, err := d.Int16(field)
	if err != nil {
		return "", err
	}
	if l < 0 {
		return "", nil
	}
	b, err := d.next(int(l), field)
	if err != nil {
		return "", err
	}
	return decodeText(b), nil
}

// CompactString decodes a string with a compact format. Null decodes to "".
func (d *Decoder) CompactString(field string) (string, error) {
	l, err := d.Uvarint(field)
	if err != nil {
		return "", err
	}
	if l == 0 { // nullable string
		return "", nil
	}
	if uint64(l-1) > uint64(d.Remaining()) {
		return "", d.fail(field, l-1, ErrUnexpectedEOF)
	}
	b, _ := d.next(int(l-1), field)
	return decodeText(b), nil
}

// CompactArrayLen decodes the length of a compact array. A null array yields -1.
func (d *Decoder) CompactArrayLen(field string) (int, error) {
	l, err := d.Uvarint(field)
	if err != nil {
		return 0, err
	}
	return int(l) - 1, nil
}

// TagBuffer consumes the tagged fields section closing a struct. No tagged fields
// are understood, so anything but an empty section is rejected.
func (d *Decoder) TagBuffer(field string) error {
	start := d.Offset
	n, err := d.Uvarint(field)
	if err != nil {
		return err
	}
	if n != 0 {
		return NewDecodeError(field, start, n, ErrUnexpectedTagBuffer)
	}
	return nil
}

// decodeText converts raw bytes to a string, replacing invalid UTF-8 sequences.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
