package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Answer is a decoded answer value, either a student response or a stored
// correct answer. The concrete variants are Text, List and Parts; a nil Answer
// means nothing was supplied.
type Answer interface {
	isAnswer()
}

// Text is a single scalar answer ("B", "true", "photosynthesis").
type Text string

// List is an ordered list of scalar answers. For single-part questions it holds
// accepted alternatives, for multi-part questions each position is one part.
type List []string

// Parts is a keyed answer for multi-part questions. Values may nest.
type Parts map[string]Answer

func (Text) isAnswer()  {}
func (List) isAnswer()  {}
func (Parts) isAnswer() {}

// DecodeAnswer converts a raw JSON value into an Answer. JSON null and empty
// input decode to a nil Answer without error.
func DecodeAnswer(raw []byte) (Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return fromJSON(v), nil
}

// DecodeAnswers decodes a JSON object of questionID -> answer value.
func DecodeAnswers(raw []byte) (map[string]Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]Answer{}, nil
	}
	var byQuestion map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &byQuestion); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	out := make(map[string]Answer, len(byQuestion))
	for id, v := range byQuestion {
		a, err := DecodeAnswer(v)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", id, err)
		}
		out[id] = a
	}
	return out, nil
}

func fromJSON(v interface{}) Answer {
	switch t := v.(type) {
	case string:
		return Text(t)
	case json.Number:
		return Text(t.String())
	case bool:
		return Text(strconv.FormatBool(t))
	case []interface{}:
		out := make(List, 0, len(t))
		for _, e := range t {
			out = append(out, scalarString(e))
		}
		return out
	case map[string]interface{}:
		out := make(Parts, len(t))
		for k, e := range t {
			out[k] = fromJSON(e)
		}
		return out
	}
	return nil
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// leaves flattens an answer into its scoring parts keyed by path. A List
// inside Parts stays a single leaf (alternatives for that blank), a top-level
// List is split positionally.
func leaves(a Answer) map[string]Answer {
	out := make(map[string]Answer)
	switch t := a.(type) {
	case nil:
	case Text:
		out[""] = t
	case List:
		for i, v := range t {
			out[strconv.Itoa(i)] = Text(v)
		}
	case Parts:
		flattenParts("", t, out)
	}
	return out
}

func flattenParts(prefix string, p Parts, out map[string]Answer) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := p[k].(Parts); ok && len(nested) > 0 {
			flattenParts(path, nested, out)
			continue
		}
		out[path] = p[k]
	}
}
