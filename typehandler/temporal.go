package typehandler

import "time"

// temporalLayout is the ISO-with-microseconds format spec §4.8 requires
// for temporal values inside a CacheKey serialization; the same layout is
// used here so a value round-trips identically through get/set.
const temporalLayout = "2006-01-02T15:04:05.000000Z07:00"

// ImmutableTemporalHandler handles time.Time values passed by value.
type ImmutableTemporalHandler struct{}

func (ImmutableTemporalHandler) TypeName() string { return "temporal.immutable" }

func (ImmutableTemporalHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case time.Time:
		return v.Format(temporalLayout), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.Format(temporalLayout), nil
	}
	return nil, errUnsupported("temporal.immutable", value)
}

func (ImmutableTemporalHandler) GetResult(raw any) (any, error) {
	t, err := parseTemporal(raw)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	return *t, nil
}

// MutableTemporalHandler handles *time.Time values, modeling the spec's
// "mutable temporal" handler as a pointer the caller may overwrite in
// place.
type MutableTemporalHandler struct{}

func (MutableTemporalHandler) TypeName() string { return "temporal.mutable" }

func (MutableTemporalHandler) SetParameter(value any) (any, error) {
	return ImmutableTemporalHandler{}.SetParameter(value)
}

func (MutableTemporalHandler) GetResult(raw any) (any, error) {
	return parseTemporal(raw)
}

func parseTemporal(raw any) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case []byte:
		return parseTemporalString(string(v))
	case string:
		return parseTemporalString(v)
	}
	return nil, errUnsupported("temporal", raw)
}

var temporalLayouts = []string{
	temporalLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTemporalString(s string) (*time.Time, error) {
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errUnsupported("temporal", s)
}
