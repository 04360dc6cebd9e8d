// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseError is returned when a telemetry document is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing telemetry document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is a loosely typed smartctl JSON document. Lookups never fail:
// missing keys and values of an unexpected type read as absent.
type Document struct {
	Node
}

// ParseDocument decodes raw smartctl output. Numbers are kept as json.Number
// so 64-bit counters survive without a float64 round trip.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &Document{Node: Node{value: root}}, nil
}

// Node is a position inside a Document.
type Node struct {
	value any
}

// Get returns the member key of an object node.
func (n Node) Get(key string) Node {
	obj, ok := n.value.(map[string]any)
	if !ok {
		return Node{}
	}
	return Node{value: obj[key]}
}

// Path walks nested object members.
func (n Node) Path(keys ...string) Node {
	for _, key := range keys {
		n = n.Get(key)
	}
	return n
}

func (n Node) Exists() bool {
	return n.value != nil
}

// Int returns the node as a signed 64-bit integer. Fractional numbers,
// out-of-range numbers and non-numbers read as absent.
func (n Node) Int() (int64, bool) {
	num, ok := n.value.(json.Number)
	if !ok {
		return 0, false
	}
	v, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func (n Node) Text() (string, bool) {
	s, ok := n.value.(string)
	return s, ok
}

func (n Node) Bool() (bool, bool) {
	b, ok := n.value.(bool)
	return b, ok
}

// Array returns the elements of an array node, or nil.
func (n Node) Array() []Node {
	arr, ok := n.value.([]any)
	if !ok {
		return nil
	}
	nodes := make([]Node, len(arr))
	for i, v := range arr {
		nodes[i] = Node{value: v}
	}
	return nodes
}
