/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldstream

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitycache/model"
)

// Backends decode numbers differently: in-memory records keep int64 and
// float64, JSON decoders with UseNumber produce json.Number and the DynamoDB
// attribute decoder produces attributevalue.Number. Both number types expose
// Int64 and Float64.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case number:
		return n.Int64()
	}
	return 0, fmt.Errorf("unexpected %T for integer field", v)
}

func toInteger(v any, min, max int64) (int64, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, min, max)
	}
	return n, nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case number:
		return n.Float64()
	}
	return 0, fmt.Errorf("unexpected %T for floating point field", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	}
	return false, fmt.Errorf("unexpected %T for bool field", v)
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	}
	return "", fmt.Errorf("unexpected %T for string field", v)
}

func toChar(v any) (rune, error) {
	switch c := v.(type) {
	case nil:
		return 0, nil
	case string:
		if c == "" {
			return 0, nil
		}
		r, _ := utf8.DecodeRuneInString(c)
		return r, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected %T for char field", v)
	}
	return rune(n), nil
}

func toDate(v any) (strfmt.DateTime, error) {
	switch d := v.(type) {
	case nil:
		return strfmt.DateTime{}, nil
	case strfmt.DateTime:
		return d, nil
	case time.Time:
		return strfmt.DateTime(d), nil
	case string:
		if d == "" {
			return strfmt.DateTime{}, nil
		}
		return strfmt.ParseDateTime(d)
	}
	return strfmt.DateTime{}, fmt.Errorf("unexpected %T for date field", v)
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return base64.StdEncoding.DecodeString(b)
	}
	return nil, fmt.Errorf("unexpected %T for image data", v)
}

func toImage(v any) (*model.NamedImage, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected %T for image field", v)
	}
	name, err := toString(m["name"])
	if err != nil {
		return nil, err
	}
	data, err := toBytes(m["data"])
	if err != nil {
		return nil, err
	}
	return &model.NamedImage{Name: name, Data: data}, nil
}

func toID(v any) (model.ID, error) {
	s, err := toString(v)
	if err != nil {
		return model.NoID, err
	}
	return model.ID(s), nil
}
