package protocol

import (
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
)

// https://kafka.apache.org/protocol#protocol_error_codes

// Error is a Kafka error code as carried in response bodies.
type Error struct {
	Code        int16
	Message     string
	IsRetriable bool
}

func fromKerr(e *kerr.Error) Error {
	return Error{Code: e.Code, Message: e.Message, IsRetriable: e.Retriable}
}

// Error codes returned by this broker.
var (
	ErrNone                    = Error{Code: 0, Message: "NONE"}
	ErrUnknownTopicOrPartition = fromKerr(kerr.UnknownTopicOrPartition)
	ErrUnsupportedVersion      = fromKerr(kerr.UnsupportedVersion)
)

func (e Error) String() string {
	return fmt.Sprintf("%s(%d)", e.Message, e.Code)
}

// versionError is the version check each body builder applies to its own error field.
func versionError(key APIKey, version int16) Error {
	if key.SupportsVersion(version) {
		return ErrNone
	}
	return ErrUnsupportedVersion
}
