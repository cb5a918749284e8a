package proto

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Wire keys used inside the Struct payloads.
const (
	KeyName        = "name"
	KeyOwnerID     = "ownerId"
	KeyAccessToken = "accessToken"
	KeyCollection  = "collection"
	KeyField       = "field"
	KeyValue       = "value"
	KeyID          = "id"
	KeyData        = "data"
	KeyCreateTime  = "createTime"
	KeyDocuments   = "documents"
	KeyKey         = "key"
	KeyURL         = "url"
	KeyStatus      = "status"
)

// ErrMissingField is returned when a required key is absent or has the wrong type.
var ErrMissingField = errors.New("missing field")

// Document is one stored record: an opaque id, its fields and the server
// creation time.
type Document struct {
	ID         string
	Data       map[string]any
	CreateTime time.Time
}

type OwnerRequest struct {
	Name    string
	OwnerID string
}

type OwnerResponse struct {
	OwnerID     string
	AccessToken string
}

type QueryRequest struct {
	Collection string
	Field      string
	Value      string
}

type AddRequest struct {
	Collection string
	Data       map[string]any
}

type SetRequest struct {
	Collection string
	ID         string
	Data       map[string]any
}

type DeleteRequest struct {
	Collection string
	ID         string
}

type PresignResponse struct {
	Key string
	URL string
}

func (r OwnerRequest) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{KeyName: r.Name, KeyOwnerID: r.OwnerID})
}

func ParseOwnerRequest(s *structpb.Struct) OwnerRequest {
	return OwnerRequest{Name: stringField(s, KeyName), OwnerID: stringField(s, KeyOwnerID)}
}

func (r OwnerResponse) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{KeyOwnerID: r.OwnerID, KeyAccessToken: r.AccessToken})
}

func ParseOwnerResponse(s *structpb.Struct) (OwnerResponse, error) {
	r := OwnerResponse{OwnerID: stringField(s, KeyOwnerID), AccessToken: stringField(s, KeyAccessToken)}
	if r.OwnerID == "" {
		return r, fmt.Errorf("%w: %s", ErrMissingField, KeyOwnerID)
	}
	return r, nil
}

func (r QueryRequest) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{KeyCollection: r.Collection, KeyField: r.Field, KeyValue: r.Value})
}

func ParseQueryRequest(s *structpb.Struct) QueryRequest {
	return QueryRequest{
		Collection: stringField(s, KeyCollection),
		Field:      stringField(s, KeyField),
		Value:      stringField(s, KeyValue),
	}
}

// QueryResponse encodes docs as a Struct with a "documents" list.
func QueryResponse(docs []Document) (*structpb.Struct, error) {
	list := make([]any, 0, len(docs))
	for _, d := range docs {
		data := d.Data
		if data == nil {
			data = map[string]any{}
		}
		list = append(list, map[string]any{
			KeyID:         d.ID,
			KeyData:       data,
			KeyCreateTime: d.CreateTime.UTC().Format(time.RFC3339Nano),
		})
	}
	return structpb.NewStruct(map[string]any{KeyDocuments: list})
}

// ParseQueryResponse decodes the documents list. Entries without an id are
// rejected; a missing or malformed createTime yields the zero time.
func ParseQueryResponse(s *structpb.Struct) ([]Document, error) {
	v, ok := s.GetFields()[KeyDocuments]
	if !ok {
		return []Document{}, nil
	}
	lv := v.GetListValue()
	if lv == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, KeyDocuments)
	}

	docs := make([]Document, 0, len(lv.GetValues()))
	for i, item := range lv.GetValues() {
		st := item.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("document %d: not an object", i)
		}
		id := stringField(st, KeyID)
		if id == "" {
			return nil, fmt.Errorf("document %d: %w: %s", i, ErrMissingField, KeyID)
		}
		doc := Document{ID: id, Data: map[string]any{}}
		if dv := st.GetFields()[KeyData].GetStructValue(); dv != nil {
			doc.Data = dv.AsMap()
		}
		if ts := stringField(st, KeyCreateTime); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				doc.CreateTime = t
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r AddRequest) Struct() (*structpb.Struct, error) {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{KeyCollection: r.Collection, KeyData: data})
}

func ParseAddRequest(s *structpb.Struct) AddRequest {
	return AddRequest{Collection: stringField(s, KeyCollection), Data: mapField(s, KeyData)}
}

// AddResponse carries the minted id and the creation time assigned by the
// store. A zero createTime is omitted.
func AddResponse(id string, created time.Time) (*structpb.Struct, error) {
	fields := map[string]any{KeyID: id}
	if !created.IsZero() {
		fields[KeyCreateTime] = created.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(fields)
}

// ParseAddResponse requires an id; a missing or malformed createTime yields
// the zero time.
func ParseAddResponse(s *structpb.Struct) (string, time.Time, error) {
	id := stringField(s, KeyID)
	if id == "" {
		return "", time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, KeyID)
	}
	var created time.Time
	if ts := stringField(s, KeyCreateTime); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			created = t
		}
	}
	return id, created, nil
}

func (r SetRequest) Struct() (*structpb.Struct, error) {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{KeyCollection: r.Collection, KeyID: r.ID, KeyData: data})
}

func ParseSetRequest(s *structpb.Struct) SetRequest {
	return SetRequest{Collection: stringField(s, KeyCollection), ID: stringField(s, KeyID), Data: mapField(s, KeyData)}
}

func (r DeleteRequest) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{KeyCollection: r.Collection, KeyID: r.ID})
}

func ParseDeleteRequest(s *structpb.Struct) DeleteRequest {
	return DeleteRequest{Collection: stringField(s, KeyCollection), ID: stringField(s, KeyID)}
}

func (r PresignResponse) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{KeyKey: r.Key, KeyURL: r.URL})
}

func ParsePresignResponse(s *structpb.Struct) (PresignResponse, error) {
	r := PresignResponse{Key: stringField(s, KeyKey), URL: stringField(s, KeyURL)}
	if r.URL == "" {
		return r, fmt.Errorf("%w: %s", ErrMissingField, KeyURL)
	}
	return r, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func mapField(s *structpb.Struct, key string) map[string]any {
	if st := s.GetFields()[key].GetStructValue(); st != nil {
		return st.AsMap()
	}
	return map[string]any{}
}
