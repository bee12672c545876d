package typesys

import (
	"encoding/json"
	"fmt"
)

// wireValue is the JSON wire form of a Value: {"type": "...", "value": ...}
// for scalars, {"type": "ARRAY", "item": "...", "values": [...]} for arrays,
// {"type": "MAP", "mapValue": "...", "entries": {...}} for maps. This mirrors
// the shape a protobuf-oneof-based wire message would take without needing
// one: round-tripping through Encode/Decode is exact for every kind except
// FLOAT, where bit-for-bit equality across encoders is not guaranteed.
type wireValue struct {
	Type    string          `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Item    string          `json:"item,omitempty"`
	Values  []wireValue     `json:"values,omitempty"`
	MapItem string          `json:"mapValue,omitempty"`
	Entries map[string]wireValue `json:"entries,omitempty"`
}

// Encode renders v as its wire representation.
func Encode(v Value) ([]byte, error) {
	w, err := encodeWire(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func encodeWire(v Value) (wireValue, error) {
	w := wireValue{Type: v.Type.String()}
	switch v.Type {
	case BOOLEAN:
		b, _ := v.AsBool()
		w.Value, _ = json.Marshal(b)
	case INTEGER:
		i, _ := v.AsInt()
		w.Value, _ = json.Marshal(i)
	case FLOAT:
		f, _ := v.AsFloat()
		w.Value, _ = json.Marshal(f)
	case DECIMAL:
		d, _ := v.AsDecimal()
		w.Value, _ = json.Marshal(d)
	case STRING:
		s, _ := v.AsString()
		w.Value, _ = json.Marshal(s)
	case DATE:
		d, _ := v.AsDate()
		w.Value, _ = json.Marshal(FormatDate(d))
	case DATETIME:
		d, _ := v.AsDateTime()
		w.Value, _ = json.Marshal(FormatDateTime(d))
	case ARRAY:
		items, _ := v.AsArray()
		if itemType, ok := v.ArrayItemType(); ok {
			w.Item = itemType.String()
		}
		w.Values = make([]wireValue, len(items))
		for i, it := range items {
			iw, err := encodeWire(it)
			if err != nil {
				return wireValue{}, err
			}
			w.Values[i] = iw
		}
	case MAP:
		m, _ := v.AsMap()
		w.Entries = make(map[string]wireValue, len(m))
		for k, mv := range m {
			mw, err := encodeWire(mv)
			if err != nil {
				return wireValue{}, err
			}
			w.Entries[k] = mw
			w.MapItem = mv.Type.String()
		}
	default:
		return wireValue{}, fmt.Errorf("typesys: cannot encode unknown type %s", v.Type)
	}
	return w, nil
}

// Decode parses the wire representation back into a native Value.
func Decode(data []byte) (Value, error) {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return Value{}, fmt.Errorf("typesys: decode: %w", err)
	}
	return decodeWire(w)
}

func decodeWire(w wireValue) (Value, error) {
	bt, err := parseBasicType(w.Type)
	if err != nil {
		return Value{}, err
	}
	switch bt {
	case BOOLEAN:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return Value{}, err
		}
		return NewBool(b), nil
	case INTEGER:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return Value{}, err
		}
		return NewInt(i), nil
	case FLOAT:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return Value{}, err
		}
		return NewFloat(f), nil
	case DECIMAL:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return Value{}, err
		}
		return NewDecimal(s)
	case STRING:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return Value{}, err
		}
		return NewString(s), nil
	case DATE:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return Value{}, err
		}
		t, err := ParseISODate(s)
		if err != nil {
			return Value{}, err
		}
		return NewDate(t), nil
	case DATETIME:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return Value{}, err
		}
		t, err := ParseISODateTime(s)
		if err != nil {
			return Value{}, err
		}
		return NewDateTime(t), nil
	case ARRAY:
		items := make([]Value, len(w.Values))
		for i, iw := range w.Values {
			v, err := decodeWire(iw)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return NewArray(items)
	case MAP:
		m := make(map[string]Value, len(w.Entries))
		for k, mw := range w.Entries {
			v, err := decodeWire(mw)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return NewMap(m)
	default:
		return Value{}, fmt.Errorf("typesys: cannot decode unknown type %s", w.Type)
	}
}

func parseBasicType(s string) (BasicType, error) {
	switch s {
	case "BOOLEAN":
		return BOOLEAN, nil
	case "INTEGER":
		return INTEGER, nil
	case "FLOAT":
		return FLOAT, nil
	case "DECIMAL":
		return DECIMAL, nil
	case "STRING":
		return STRING, nil
	case "DATE":
		return DATE, nil
	case "DATETIME":
		return DATETIME, nil
	case "ARRAY":
		return ARRAY, nil
	case "MAP":
		return MAP, nil
	default:
		return BOOLEAN, fmt.Errorf("typesys: unrecognized basic type %q", s)
	}
}
