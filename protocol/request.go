package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/CefBoud/minikafka/serde"
)

// Framing and request-level decode errors. They are connection-fatal: once a length
// prefixed field is misread the start of the next frame cannot be found.
var (
	ErrFrameTooSmall  = errors.New("frame too small")
	ErrFrameTooLarge  = errors.New("frame too large")
	ErrTruncated      = errors.New("truncated frame")
	ErrInvalidCursor  = errors.New("invalid cursor")
	ErrUnsupportedAPI = errors.New("unsupported api key")
)

// MinMessageSize covers api key, api version and correlation id.
const MinMessageSize = 8

// RequestHeader is the request header v2: fixed fields, INT16-length client id and
// an empty tagged fields section.
type RequestHeader struct {
	APIKey        APIKey
	APIVersion    int16
	CorrelationID int32
	ClientID      string
}

// RequestBody is implemented by the body of every supported API, and only by them.
type RequestBody interface {
	APIKey() APIKey
	requestBody()
}

// Request is a decoded frame.
type Request struct {
	Size   int32
	Header RequestHeader
	Body   RequestBody
}

// ReadFrame reads one size-prefixed frame and returns it without the prefix.
// A clean disconnect before the prefix is returned as io.EOF.
func ReadFrame(r io.Reader, maxSize int32) ([]byte, error) {
	// ReadFull (not Read) is used to ensure the entire request is read
	var lengthBuffer [4]byte
	n, err := io.ReadFull(r, lengthBuffer[:])
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, serde.NewDecodeError("message_size", 0, fmt.Sprintf("%d of 4 bytes", n), ErrTruncated)
		}
		return nil, fmt.Errorf("read message size: %w", err)
	}

	size := int32(serde.Encoding.Uint32(lengthBuffer[:]))
	if size < MinMessageSize {
		return nil, serde.NewDecodeError("message_size", 0, size, ErrFrameTooSmall)
	}
	if maxSize > 0 && size > maxSize {
		return nil, serde.NewDecodeError("message_size", 0, size, ErrFrameTooLarge)
	}

	frame := make([]byte, size)
	n, err = io.ReadFull(r, frame)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, serde.NewDecodeError("frame", 4+n, fmt.Sprintf("%d of %d bytes", n, size), ErrTruncated)
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame, nil
}

// ReadRequest reads and decodes the next request from r.
func ReadRequest(r io.Reader, maxSize int32) (*Request, error) {
	frame, err := ReadFrame(r, maxSize)
	if err != nil {
		return nil, err
	}
	return DecodeRequest(frame)
}

// DecodeRequest decodes a frame (without its size prefix) into a Request.
func DecodeRequest(frame []byte) (*Request, error) {
	decoder := serde.NewDecoder(frame)
	header, err := decodeHeader(&decoder)
	if err != nil {
		return nil, err
	}
	body, err := decodeBody(&decoder, header)
	if err != nil {
		return nil, err
	}
	return &Request{Size: int32(len(frame)), Header: header, Body: body}, nil
}

func decodeHeader(d *serde.Decoder) (RequestHeader, error) {
	var header RequestHeader
	key, err := d.Int16("request_api_key")
	if err != nil {
		return header, err
	}
	if header.APIVersion, err = d.Int16("request_api_version"); err != nil {
		return header, err
	}
	if header.CorrelationID, err = d.Int32("correlation_id"); err != nil {
		return header, err
	}
	// unknown keys are rejected before the variable length part of the header
	header.APIKey = Lookup(key)
	if !header.APIKey.IsSupported() {
		return header, serde.NewDecodeError("request_api_key", 0, key, ErrUnsupportedAPI)
	}
	if header.ClientID, err = d.NullableString("client_id"); err != nil {
		return header, err
	}
	if err = d.TagBuffer("request_header.tagged_fields"); err != nil {
		return header, err
	}
	return header, nil
}

func decodeBody(d *serde.Decoder, header RequestHeader) (RequestBody, error) {
	switch header.APIKey.Key {
	case apiVersionsKey:
		return decodeAPIVersionsRequest(d)
	case describeTopicPartitionsKey:
		return decodeDescribeTopicPartitionsRequest(d)
	default:
		return nil, serde.NewDecodeError("request_api_key", 0, header.APIKey.Key, ErrUnsupportedAPI)
	}
}
