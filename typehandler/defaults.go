package typehandler

import (
	"strconv"
	"strings"
)

// IntegerHandler handles Go's signed/unsigned integer kinds.
type IntegerHandler struct{}

func (IntegerHandler) TypeName() string { return "integer" }

func (IntegerHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errUnsupported("integer", value)
		}
		return n, nil
	case float64:
		return int64(v), nil
	}
	return nil, errUnsupported("integer", value)
}

func (IntegerHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return nil, errUnsupported("integer", raw)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errUnsupported("integer", raw)
		}
		return n, nil
	case float64:
		return int64(v), nil
	}
	return nil, errUnsupported("integer", raw)
}

// FloatHandler handles Go's floating-point kinds.
type FloatHandler struct{}

func (FloatHandler) TypeName() string { return "float" }

func (FloatHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errUnsupported("float", value)
		}
		return f, nil
	}
	return nil, errUnsupported("float", value)
}

func (FloatHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, errUnsupported("float", raw)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errUnsupported("float", raw)
		}
		return f, nil
	case int64:
		return float64(v), nil
	}
	return nil, errUnsupported("float", raw)
}

// BooleanHandler implements the spec §4.4 boolean-ingestion truth table:
// {0|1, "0"|"1", "true"|"false", "t"|"f", "y"|"n", "yes"|"no", "on"|"off"}
// case-insensitively map to bool; a non-matching string maps to false.
type BooleanHandler struct{}

func (BooleanHandler) TypeName() string { return "boolean" }

func (BooleanHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if b, ok := value.(bool); ok {
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	}
	b := coerceBool(value)
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func (BooleanHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return coerceBool(raw), nil
}

var trueTokens = map[string]bool{
	"1": true, "true": true, "t": true, "y": true, "yes": true, "on": true,
}

func coerceBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case []byte:
		return trueTokens[strings.ToLower(strings.TrimSpace(string(v)))]
	case string:
		return trueTokens[strings.ToLower(strings.TrimSpace(v))]
	}
	return false
}

// StringHandler is also the default unknownHandler (spec §4.4 step 4).
type StringHandler struct{}

func (StringHandler) TypeName() string { return "string" }

func (StringHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return toDisplayString(value), nil
}

func (StringHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return toDisplayString(v), nil
	}
}

func toDisplayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmtStringer(t)
	}
}

func fmtStringer(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}
