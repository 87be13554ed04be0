package typehandler

import (
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// UUIDHandler binds Go's uuid.UUID (and its pointer form) to the textual
// representation most SQL drivers and column types (CHAR(36), uuid) expect.
// Primary and foreign keys modeled as UUIDs are common enough in mapped
// statements that the registry carries this handler by default, the same
// way it carries JSON and enum support.
type UUIDHandler struct{}

func (UUIDHandler) TypeName() string { return "uuid" }

func (UUIDHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case *uuid.UUID:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, errUnsupported("uuid", value)
		}
		return s, nil
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return nil, errUnsupported("uuid", value)
		}
		return id.String(), nil
	}
	return nil, errUnsupported("uuid", value)
}

func (UUIDHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errUnsupported("uuid", raw)
		}
		return id, nil
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return nil, errUnsupported("uuid", raw)
		}
		return id, nil
	}
	return nil, errUnsupported("uuid", raw)
}

func isUUID(t reflect.Type) bool {
	return t.PkgPath() == "github.com/google/uuid" && t.Name() == "UUID"
}
