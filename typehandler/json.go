package typehandler

import "encoding/json"

// JSONHandler encodes a map/sequence (or any JSON-marshalable Go value)
// to a string column and decodes it back, per spec §4.4's JSON handler
// requirement.
type JSONHandler struct{}

func (JSONHandler) TypeName() string { return "json" }

func (JSONHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, errUnsupported("json", value)
	}
	return string(b), nil
}

func (JSONHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var src []byte
	switch v := raw.(type) {
	case []byte:
		src = v
	case string:
		src = []byte(v)
	default:
		return nil, errUnsupported("json", raw)
	}
	var out any
	if err := json.Unmarshal(src, &out); err != nil {
		return nil, errUnsupported("json", raw)
	}
	return out, nil
}
