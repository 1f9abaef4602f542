package protocol

import (
	"github.com/CefBoud/minikafka/serde"
)

// APIVersionsRequest (Api key = 18)
type APIVersionsRequest struct {
	ClientSoftwareName    string
	ClientSoftwareVersion string
}

// APIKey returns the registry entry for ApiVersions.
func (*APIVersionsRequest) APIKey() APIKey { return APIVersions }

func (*APIVersionsRequest) requestBody() {}

func decodeAPIVersionsRequest(d *serde.Decoder) (RequestBody, error) {
	var (
		req APIVersionsRequest
		err error
	)
	if req.ClientSoftwareName, err = d.CompactString("client_software_name"); err != nil {
		return nil, err
	}
	if req.ClientSoftwareVersion, err = d.CompactString("client_software_version"); err != nil {
		return nil, err
	}
	if err = d.TagBuffer("tagged_fields"); err != nil {
		return nil, err
	}
	return &req, nil
}

// APIVersionsResponse represents the response for API versions request.
type APIVersionsResponse struct {
	ErrorCode      int16
	APIKeys        []APIKey
	ThrottleTimeMs int32
}

// APIKey returns the registry entry for ApiVersions.
func (*APIVersionsResponse) APIKey() APIKey { return APIVersions }

// newAPIVersionsResponse advertises the whole registry whatever the request carried.
func newAPIVersionsResponse(version int16, _ *APIVersionsRequest) *APIVersionsResponse {
	return &APIVersionsResponse{
		ErrorCode: versionError(APIVersions, version).Code,
		APIKeys:   SupportedAPIs(),
	}
}

func (r *APIVersionsResponse) encode(e *serde.Encoder) {
	e.PutInt16(r.ErrorCode)
	e.PutCompactArrayLen(len(r.APIKeys))
	for _, k := range r.APIKeys {
		e.PutInt16(k.Key)
		e.PutInt16(k.MinVersion)
		e.PutInt16(k.MaxVersion)
		e.EndStruct()
	}
	e.PutInt32(r.ThrottleTimeMs)
	e.EndStruct()
}
