// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags the content of a Payload.
type Kind string

// Kind values.
const (
	KindText       Kind = "text"
	KindStructured Kind = "structured"
)

// ParseKind converts a string to Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindText, KindStructured:
		return k, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", s)
	}
}

// Payload is a unit of writable content.
//
// For KindText, Body is a UTF-8 string. For KindStructured, Body is a JSON document.
// A structured Body which is not valid JSON is handled as text.
type Payload struct {
	Kind Kind
	Body []byte
}

// TextPayload wraps a document text.
func TextPayload(s string) Payload {
	return Payload{
		Kind: KindText,
		Body: []byte(s),
	}
}

// StructuredPayload wraps an already encoded JSON document.
func StructuredPayload(raw []byte) Payload {
	return Payload{
		Kind: KindStructured,
		Body: raw,
	}
}

// StructuredValue encodes v as compact JSON and wraps it.
//
// HTML characters are not escaped, so the encoding matches what other writers produce for the same value.
func StructuredValue(v any) (Payload, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return Payload{}, fmt.Errorf("failed to encode structured payload: %w", err)
	}

	return StructuredPayload(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// Len returns the raw byte length of the payload body.
func (p Payload) Len() uint64 {
	return uint64(len(p.Body))
}

type parseOutcome int

const (
	unparseable parseOutcome = iota
	parsedArray
	parsedSingle
)

type parseResult struct {
	single  json.RawMessage
	items   []json.RawMessage
	outcome parseOutcome
}

// parse classifies a structured body as an array, a single value, or not JSON at all.
func parse(body []byte) parseResult {
	if !json.Valid(body) {
		return parseResult{outcome: unparseable}
	}

	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage

		if err := json.Unmarshal(trimmed, &items); err != nil {
			return parseResult{outcome: unparseable}
		}

		return parseResult{outcome: parsedArray, items: items}
	}

	return parseResult{outcome: parsedSingle, single: json.RawMessage(trimmed)}
}
