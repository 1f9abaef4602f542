package protocol

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/CefBoud/minikafka/serde"
)

// encodeRequest builds a size-prefixed request with a v2 header.
func encodeRequest(apiKey, version int16, correlationID int32, clientID string, body []byte) []byte {
	encoder := serde.NewEncoder()
	encoder.PutInt16(apiKey)
	encoder.PutInt16(version)
	encoder.PutInt32(correlationID)
	encoder.PutString(clientID)
	encoder.EndStruct() // header end
	encoder.PutBytes(body)
	encoder.PutLen()
	return encoder.Bytes()
}

func apiVersionsBody(name, version string) []byte {
	req := kmsg.NewPtrApiVersionsRequest()
	req.Version = 4
	req.ClientSoftwareName = name
	req.ClientSoftwareVersion = version
	return req.AppendTo(nil)
}

func describeTopicsBody(topics ...string) []byte {
	req := kmsg.NewPtrDescribeTopicPartitionsRequest()
	req.Version = 0
	for _, name := range topics {
		topic := kmsg.NewDescribeTopicPartitionsRequestTopic()
		topic.Topic = name
		req.Topics = append(req.Topics, topic)
	}
	return req.AppendTo(nil)
}

// readResponse reads one size-prefixed response and returns it without the prefix.
func readResponse(t *testing.T, r io.Reader) []byte {
	t.Helper()
	var size [4]byte
	_, err := io.ReadFull(r, size[:])
	require.NoError(t, err)
	frame := make([]byte, serde.Encoding.Uint32(size[:]))
	_, err = io.ReadFull(r, frame)
	require.NoError(t, err)
	return frame
}

func decodeFrame(t *testing.T, request []byte) *Request {
	t.Helper()
	req, err := DecodeRequest(request[4:])
	require.NoError(t, err)
	return req
}
