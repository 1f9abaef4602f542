package protocol

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/CefBoud/minikafka/serde"
)

// TopicAuthorizedOperations is the ACL bitmask reported for every topic:
// READ, WRITE, CREATE, DELETE, ALTER, DESCRIBE, DESCRIBE_CONFIGS and ALTER_CONFIGS.
const TopicAuthorizedOperations uint32 = 0x00000DF8

// DescribeTopicPartitionsRequest (Api key = 75)
type DescribeTopicPartitionsRequest struct {
	Topics                 []string
	ResponsePartitionLimit int32
	Cursor                 uint8 // only the null cursor is accepted, pagination is not supported
}

// APIKey returns the registry entry for DescribeTopicPartitions.
func (*DescribeTopicPartitionsRequest) APIKey() APIKey { return DescribeTopicPartitions }

func (*DescribeTopicPartitionsRequest) requestBody() {}

func decodeDescribeTopicPartitionsRequest(d *serde.Decoder) (RequestBody, error) {
	var req DescribeTopicPartitionsRequest
	n, err := d.CompactArrayLen("topics")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		req.Topics = make([]string, 0, min(n, d.Remaining()))
	}
	for i := 0; i < n; i++ {
		name, err := d.CompactString(fmt.Sprintf("topics[%d].name", i))
		if err != nil {
			return nil, err
		}
		if err := d.TagBuffer(fmt.Sprintf("topics[%d].tagged_fields", i)); err != nil {
			return nil, err
		}
		req.Topics = append(req.Topics, name)
	}

	if req.ResponsePartitionLimit, err = d.Int32("response_partition_limit"); err != nil {
		return nil, err
	}

	offset := d.Offset
	cursor, err := d.Int8("cursor")
	if err != nil {
		return nil, err
	}
	req.Cursor = uint8(cursor)
	if req.Cursor != serde.NullCursor {
		return nil, serde.NewDecodeError("cursor", offset, fmt.Sprintf("0x%02X", req.Cursor), ErrInvalidCursor)
	}

	if err := d.TagBuffer("tagged_fields"); err != nil {
		return nil, err
	}
	return &req, nil
}

// DescribeTopicPartitionsResponse lists one TopicDescriptor per requested topic.
type DescribeTopicPartitionsResponse struct {
	ThrottleTimeMs int32
	Topics         []TopicDescriptor
	NextCursor     uint8
}

// TopicDescriptor describes a single topic in a DescribeTopicPartitions response.
type TopicDescriptor struct {
	ErrorCode            int16
	Name                 string
	TopicID              uuid.UUID
	IsInternal           bool
	Partitions           []TopicPartition
	AuthorizedOperations uint32
}

// TopicPartition is a partition entry of a TopicDescriptor.
type TopicPartition struct {
	ErrorCode              int16
	PartitionIndex         int32
	LeaderID               int32
	LeaderEpoch            int32
	ReplicaNodes           []int32
	IsrNodes               []int32
	EligibleLeaderReplicas []int32 // nullable
	LastKnownELR           []int32 // nullable
	OfflineReplicas        []int32
}

// APIKey returns the registry entry for DescribeTopicPartitions.
func (*DescribeTopicPartitionsResponse) APIKey() APIKey { return DescribeTopicPartitions }

// newDescribeTopicPartitionsResponse reports every requested topic as unknown, since
// this broker hosts none.
func newDescribeTopicPartitionsResponse(version int16, req *DescribeTopicPartitionsRequest) *DescribeTopicPartitionsResponse {
	errorCode := ErrUnknownTopicOrPartition.Code
	if err := versionError(DescribeTopicPartitions, version); err != ErrNone {
		errorCode = err.Code
	}

	topics := make([]TopicDescriptor, 0, len(req.Topics))
	for _, name := range req.Topics {
		topics = append(topics, TopicDescriptor{
			ErrorCode:            errorCode,
			Name:                 name,
			TopicID:              uuid.Nil,
			IsInternal:           false,
			Partitions:           []TopicPartition{},
			AuthorizedOperations: TopicAuthorizedOperations,
		})
	}
	return &DescribeTopicPartitionsResponse{
		Topics:     topics,
		NextCursor: serde.NullCursor,
	}
}

func (r *DescribeTopicPartitionsResponse) encode(e *serde.Encoder) {
	e.PutInt32(r.ThrottleTimeMs)
	e.PutCompactArrayLen(len(r.Topics))
	for _, tp := range r.Topics {
		e.PutInt16(tp.ErrorCode)
		e.PutCompactString(tp.Name)
		e.PutUUID(tp.TopicID)
		e.PutBool(tp.IsInternal)
		e.PutCompactArrayLen(len(tp.Partitions))
		for _, p := range tp.Partitions {
			p.encode(e)
		}
		e.PutUint32(tp.AuthorizedOperations)
		e.EndStruct() // end topic
	}
	e.PutUint8(r.NextCursor)
	e.EndStruct()
}

func (p *TopicPartition) encode(e *serde.Encoder) {
	e.PutInt16(p.ErrorCode)
	e.PutInt32(p.PartitionIndex)
	e.PutInt32(p.LeaderID)
	e.PutInt32(p.LeaderEpoch)
	putInt32Array(e, p.ReplicaNodes)
	putInt32Array(e, p.IsrNodes)
	putNullableInt32Array(e, p.EligibleLeaderReplicas)
	putNullableInt32Array(e, p.LastKnownELR)
	putInt32Array(e, p.OfflineReplicas)
	e.EndStruct()
}

func putInt32Array(e *serde.Encoder, values []int32) {
	e.PutCompactArrayLen(len(values))
	for _, v := range values {
		e.PutInt32(v)
	}
}

func putNullableInt32Array(e *serde.Encoder, values []int32) {
	if values == nil {
		e.PutNullCompactArray()
		return
	}
	putInt32Array(e, values)
}
