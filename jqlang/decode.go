package jqlang

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Decode reads a sequence of whitespace/newline-separated JSON values from
// s, the way jq itself accepts either a single document or a stream of
// them. It walks encoding/json's token stream rather than calling
// json.Unmarshal into map[string]interface{}, so that each [*Object]
// keeps its keys in input order despite Go's randomized map order.
func Decode(s string) ([]Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out []Value
	for {
		v, err := decodeOne(dec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("jq: invalid JSON input: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		val, err := decodeToken(dec, valTok)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var arr []Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := decodeToken(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, err
	}
	return arr, nil
}
