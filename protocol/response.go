package protocol

import (
	"fmt"

	"github.com/CefBoud/minikafka/serde"
)

// ResponseHeader echoes the correlation id. TagBuffer selects header v1 (with an
// empty tagged fields section) over header v0.
type ResponseHeader struct {
	CorrelationID int32
	TagBuffer     bool
}

// ResponseBody is implemented by the response body of every supported API.
type ResponseBody interface {
	APIKey() APIKey
	encode(e *serde.Encoder)
}

// Response mirrors Request.
type Response struct {
	Header ResponseHeader
	Body   ResponseBody
}

// BuildResponse answers a decoded request.
func BuildResponse(req *Request) (*Response, error) {
	var body ResponseBody
	switch r := req.Body.(type) {
	case *APIVersionsRequest:
		body = newAPIVersionsResponse(req.Header.APIVersion, r)
	case *DescribeTopicPartitionsRequest:
		body = newDescribeTopicPartitionsResponse(req.Header.APIVersion, r)
	default:
		return nil, fmt.Errorf("no response builder for %T", req.Body)
	}
	return &Response{
		Header: ResponseHeader{
			CorrelationID: req.Header.CorrelationID,
			TagBuffer:     body.APIKey().ResponseHeaderTags,
		},
		Body: body,
	}, nil
}

// Encode serializes the response, size prefix included.
func (r *Response) Encode() []byte {
	encoder := serde.NewEncoder()
	encoder.PutInt32(r.Header.CorrelationID)
	if r.Header.TagBuffer {
		encoder.EndStruct() // header end
	}
	r.Body.encode(&encoder)
	encoder.PutLen()
	return encoder.Bytes()
}
