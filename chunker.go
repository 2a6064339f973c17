// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"unicode/utf8"
)

// Chunk splits the payload into an ordered sequence of chunks of at most bound bytes each.
//
// Structured arrays are packed greedily, one JSON line per element, without splitting or
// reordering elements; an element which alone exceeds bound becomes a chunk of its own.
// Other structured values become a single one-line chunk. Structured payloads which
// are not valid JSON, as well as text payloads, are split on the UTF-8 byte axis without
// breaking multi-byte characters.
//
// Empty content produces no chunks. Zero bound is a configuration error.
func Chunk(p Payload, bound uint64) ([]Descriptor, error) {
	_, chunks, err := chunk(p, bound)

	return chunks, err
}

// chunk returns the kind of the produced chunks along with the chunks:
// structured payloads which fail to parse are chunked as text.
func chunk(p Payload, bound uint64) (Kind, []Descriptor, error) {
	if bound == 0 {
		return "", nil, ErrInvalidBound
	}

	limit := boundInt(bound)

	if p.Kind == KindStructured {
		parsed := parse(p.Body)

		switch parsed.outcome {
		case parsedArray:
			chunks, err := chunkItems(parsed.items, limit)

			return KindStructured, chunks, err
		case parsedSingle:
			line, err := jsonLine(parsed.single)
			if err != nil {
				return "", nil, err
			}

			return KindStructured, []Descriptor{newDescriptor(0, KindStructured, line)}, nil
		case unparseable:
		}
	}

	return KindText, chunkText(p.Body, limit), nil
}

func boundInt(bound uint64) int {
	if bound > math.MaxInt {
		return math.MaxInt
	}

	return int(bound)
}

func chunkItems(items []json.RawMessage, bound int) ([]Descriptor, error) {
	var (
		chunks []Descriptor
		buf    []byte
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}

		chunks = append(chunks, newDescriptor(len(chunks), KindStructured, buf))
		buf = nil
	}

	for _, item := range items {
		line, err := jsonLine(item)
		if err != nil {
			return nil, err
		}

		switch {
		case len(line) > bound:
			// oversized element goes alone
			flush()

			chunks = append(chunks, newDescriptor(len(chunks), KindStructured, line))
		case len(buf) > 0 && len(buf)+len(line) > bound:
			flush()

			buf = append(buf, line...)
		default:
			buf = append(buf, line...)
		}
	}

	flush()

	return chunks, nil
}

// jsonLine returns the compact form of a JSON value followed by a newline.
func jsonLine(item json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer

	if err := json.Compact(&buf, item); err != nil {
		return nil, fmt.Errorf("failed to compact structured item: %w", err)
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func chunkText(data []byte, bound int) []Descriptor {
	var chunks []Descriptor

	for start := 0; start < len(data); {
		end := textWindowEnd(data, start, bound)

		chunks = append(chunks, newDescriptor(len(chunks), KindText, slices.Clone(data[start:end])))

		start = end
	}

	return chunks
}

// textWindowEnd returns the end of the text window starting at start.
//
// The window is at most bound bytes and ends on a character boundary, unless the
// character at start is itself longer than bound, or the input is not UTF-8 around the cut.
func textWindowEnd(data []byte, start, bound int) int {
	if bound >= len(data)-start {
		return len(data)
	}

	end := start + bound
	cut := end

	for i := 0; i < utf8.UTFMax-1 && cut > start && !utf8.RuneStart(data[cut]); i++ {
		cut--
	}

	switch {
	case !utf8.RuneStart(data[cut]):
		return end
	case cut == start:
		_, size := utf8.DecodeRune(data[start:])

		return start + size
	default:
		return cut
	}
}

// Items splits reassembled structured chunk contents back into the original elements, in order.
func Items(r io.Reader) ([]json.RawMessage, error) {
	var items []json.RawMessage

	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte{'\n'})

			if !json.Valid(line) {
				return nil, fmt.Errorf("line %d is not valid JSON", len(items)+1)
			}

			items = append(items, json.RawMessage(line))
		}

		if err != nil {
			return items, nil
		}
	}
}
