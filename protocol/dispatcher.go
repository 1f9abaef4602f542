package protocol

import "fmt"

// https://kafka.apache.org/protocol#protocol_api_keys
const (
	apiVersionsKey             int16 = 18
	describeTopicPartitionsKey int16 = 75
)

// APIKey describes a supported Kafka API and its version range.
type APIKey struct {
	Key        int16
	Name       string
	MinVersion int16
	MaxVersion int16
	// ResponseHeaderTags is false for ApiVersions, whose response keeps the v0
	// header (no tagged fields) so that any client can parse it.
	ResponseHeaderTags bool
}

// Unsupported is returned by Lookup for every key outside the registry.
var Unsupported = APIKey{Key: -1, Name: "Unsupported", MinVersion: -1, MaxVersion: -1}

var (
	APIVersions = APIKey{
		Key:        apiVersionsKey,
		Name:       "ApiVersions",
		MinVersion: 0,
		MaxVersion: 4,
	}
	DescribeTopicPartitions = APIKey{
		Key:                describeTopicPartitionsKey,
		Name:               "DescribeTopicPartitions",
		MinVersion:         0,
		MaxVersion:         0,
		ResponseHeaderTags: true,
	}
)

// Lookup maps the request api key to its registry entry.
func Lookup(code int16) APIKey {
	switch code {
	case apiVersionsKey:
		return APIVersions
	case describeTopicPartitionsKey:
		return DescribeTopicPartitions
	default:
		return Unsupported
	}
}

// SupportedAPIs lists the registry in api key order. It is what ApiVersions advertises.
func SupportedAPIs() []APIKey {
	return []APIKey{APIVersions, DescribeTopicPartitions}
}

// IsSupported reports whether k is a registry entry rather than the Unsupported sentinel.
func (k APIKey) IsSupported() bool {
	return k != Unsupported
}

// SupportsVersion reports whether a request at version v is answered without
// UNSUPPORTED_VERSION, i.e. 0 <= v <= MaxVersion.
func (k APIKey) SupportsVersion(v int16) bool {
	return k.IsSupported() && v >= 0 && v <= k.MaxVersion
}

func (k APIKey) String() string {
	return fmt.Sprintf("%s(%d)", k.Name, k.Key)
}
