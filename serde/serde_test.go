package serde

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 300, 16383, 16384, 2097151, 2097152,
		268435455, 268435456, math.MaxInt32, math.MaxInt32 + 1, math.MaxUint32 - 1, math.MaxUint32}
	for _, v := range values {
		b := AppendUvarint(nil, v)
		got, n, err := ReadUvarint(b)
		require.NoError(t, err, "value %d", v)
		require.Equal(t, v, got)
		require.Equal(t, len(b), n)
	}
}

func TestUvarintCanonicalWidth(t *testing.T) {
	cases := map[uint32][]byte{
		0:              {0x00},
		1:              {0x01},
		127:            {0x7F},
		128:            {0x80, 0x01},
		300:            {0xAC, 0x02},
		math.MaxUint32: {0xFF, 0xFF, 0xFF, 0xFF, 0x0F},
	}
	for v, want := range cases {
		require.Equal(t, want, AppendUvarint(nil, v), "value %d", v)
	}
}

func TestUvarintRejectsOverflow(t *testing.T) {
	// fifth byte may only carry 4 bits
	_, _, err := ReadUvarint([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x10})
	require.ErrorIs(t, err, ErrMalformedVarint)

	// fifth byte with the continuation bit set
	_, _, err = ReadUvarint([]byte{0x80, 0x80, 0x80, 0x80, 0x81, 0x00})
	require.ErrorIs(t, err, ErrMalformedVarint)

	v, n, err := ReadUvarint([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F})
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), v)
	require.Equal(t, 5, n)
}

func TestUvarintUnexpectedEOF(t *testing.T) {
	_, _, err := ReadUvarint(nil)
	require.ErrorIs(t, err, ErrUnexpectedEOF)

	_, _, err = ReadUvarint([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestCompactStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "kafka-cli", "héllo wörld", "日本語のトピック", string(make([]byte, 300))} {
		e := NewEncoder()
		e.PutCompactString(s)

		d := NewDecoder(e.Bytes())
		got, err := d.CompactString("name")
		require.NoError(t, err)
		require.Equal(t, s, got)
		require.Zero(t, d.Remaining())
	}
}

func TestCompactStringEncoding(t *testing.T) {
	e := NewEncoder()
	e.PutCompactString("")
	e.PutCompactString("foo")
	require.Equal(t, []byte{0x01, 0x04, 'f', 'o', 'o'}, e.Bytes())
}

func TestCompactStringNull(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x01})
	s, err := d.CompactString("a")
	require.NoError(t, err)
	require.Equal(t, "", s)
	s, err = d.CompactString("b")
	require.NoError(t, err)
	require.Equal(t, "", s)
	require.Zero(t, d.Remaining())
}

func TestCompactStringInvalidUTF8IsReplaced(t *testing.T) {
	d := NewDecoder([]byte{0x04, 'a', 0xFF, 'b'})
	s, err := d.CompactString("name")
	require.NoError(t, err)
	require.Equal(t, "a�b", s)
}

func TestCompactStringTruncated(t *testing.T) {
	d := NewDecoder([]byte{0x06, 'a', 'b'})
	_, err := d.CompactString("topic_name")
	require.ErrorIs(t, err, ErrUnexpectedEOF)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, "topic_name", decodeErr.Field)
}

func TestCompactArrayLenRoundTrip(t *testing.T) {
	for _, count := range []int{0, 1, 2, 126, 127, 128, 1 << 20, math.MaxInt32} {
		e := NewEncoder()
		e.PutCompactArrayLen(count)

		d := NewDecoder(e.Bytes())
		got, err := d.CompactArrayLen("topics")
		require.NoError(t, err)
		require.Equal(t, count, got)
	}

	e := NewEncoder()
	e.PutNullCompactArray()
	d := NewDecoder(e.Bytes())
	got, err := d.CompactArrayLen("topics")
	require.NoError(t, err)
	require.Equal(t, -1, got)
}

func TestTagBuffer(t *testing.T) {
	d := NewDecoder([]byte{0x00})
	require.NoError(t, d.TagBuffer("tagged_fields"))

	d = NewDecoder([]byte{0x01, 0x00, 0x00})
	err := d.TagBuffer("request_header.tagged_fields")
	require.ErrorIs(t, err, ErrUnexpectedTagBuffer)
	require.Contains(t, err.Error(), "request_header.tagged_fields")
	require.Contains(t, err.Error(), "observed 1")
}

func TestDecoderFixedWidth(t *testing.T) {
	id := uuid.MustParse("5f8a1b2c-3d4e-4f60-8a9b-0c1d2e3f4a5b")
	e := NewEncoder()
	e.PutInt16(-2)
	e.PutInt32(7)
	e.PutUint8(NullCursor)
	e.PutUUID(id)
	e.PutString("kafka-cli")

	d := NewDecoder(e.Bytes())
	i16, err := d.Int16("a")
	require.NoError(t, err)
	require.Equal(t, int16(-2), i16)
	i32, err := d.Int32("b")
	require.NoError(t, err)
	require.Equal(t, int32(7), i32)
	i8, err := d.Int8("c")
	require.NoError(t, err)
	require.Equal(t, int8(-1), i8)
	got, err := d.UUID("d")
	require.NoError(t, err)
	require.Equal(t, id, got)
	s, err := d.NullableString("e")
	require.NoError(t, err)
	require.Equal(t, "kafka-cli", s)

	_, err = d.Int32("f")
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestNullableStringNull(t *testing.T) {
	d := NewDecoder([]byte{0xFF, 0xFF, 0x00})
	s, err := d.NullableString("client_id")
	require.NoError(t, err)
	require.Equal(t, "", s)
	require.Equal(t, 1, d.Remaining())
}

func TestEncoderGrowsAndPutLen(t *testing.T) {
	e := NewEncoder()
	payload := make([]byte, BufferIncrement*2+3)
	e.PutBytes(payload)
	e.EndStruct()
	e.PutLen()

	b := e.Bytes()
	require.Len(t, b, 4+len(payload)+1)
	require.Equal(t, uint32(len(payload)+1), Encoding.Uint32(b))
}
