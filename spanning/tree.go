// Package spanning builds and serializes the n-ary spanning trees the tree
// dispatcher (C6) broadcasts commands over.
package spanning

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Node is one host in a spanning tree: its own address plus the subtree
// dispatched to it, which it in turn fans out to after doing its own local
// work.
type Node struct {
	Host     string
	Children []*Node
}

func (n *Node) String() string {
	if len(n.Children) == 0 {
		return n.Host
	}
	return fmt.Sprintf("%s%v", n.Host, n.Children)
}

// MakeTree builds the spanning forest over nodes with branching factor k
// (§4.6): if the remaining set fits within k, it is a flat list of leaves;
// otherwise the first k nodes become roots and the rest are distributed
// across their subtrees in ceil((n-k)/k)-sized groups, recursing on any
// group that still exceeds k.
func MakeTree(nodes []string, k int) []*Node {
	if k <= 0 {
		k = 1
	}
	if len(nodes) <= k {
		out := make([]*Node, len(nodes))
		for i, h := range nodes {
			out[i] = &Node{Host: h}
		}
		return out
	}

	roots := nodes[:k]
	rest := nodes[k:]
	groupSize := (len(rest) + k - 1) / k

	out := make([]*Node, k)
	for i := 0; i < k; i++ {
		start := i * groupSize
		if start > len(rest) {
			start = len(rest)
		}
		end := start + groupSize
		if end > len(rest) {
			end = len(rest)
		}
		out[i] = &Node{Host: roots[i], Children: MakeTree(rest[start:end], k)}
	}
	return out
}

// RebuildTree removes host from the forest: wherever it is found, its
// children are spliced into its parent's list in its place (promoting its
// surviving descendants), matching the "rebuild the subtree excluding H"
// repair policy (§4.6). Removing an already-absent host is a no-op —
// rebuilding is idempotent.
func RebuildTree(nodes []*Node, host string) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Host == host {
			out = append(out, n.Children...)
			continue
		}
		out = append(out, &Node{Host: n.Host, Children: RebuildTree(n.Children, host)})
	}
	return out
}

// Flatten returns every host reachable in the forest, in traversal order.
// Used to verify the spanning-tree-coverage property: a full traversal
// visits each host exactly once.
func Flatten(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Host)
		out = append(out, Flatten(n.Children)...)
	}
	return out
}

// Encode serializes a forest with the protobuf wire helpers: each node is a
// length-prefixed host string followed by a varint child count and that
// many nested nodes, matching the length-delimited encoding protowire
// produces for bytes/string fields.
func Encode(nodes []*Node) []byte {
	var buf []byte
	buf = protowire.AppendVarint(buf, uint64(len(nodes)))
	for _, n := range nodes {
		buf = encodeNode(buf, n)
	}
	return buf
}

func encodeNode(buf []byte, n *Node) []byte {
	buf = protowire.AppendString(buf, n.Host)
	buf = protowire.AppendVarint(buf, uint64(len(n.Children)))
	for _, c := range n.Children {
		buf = encodeNode(buf, c)
	}
	return buf
}

// Decode deserializes a forest encoded by Encode.
func Decode(buf []byte) ([]*Node, error) {
	count, m := protowire.ConsumeVarint(buf)
	if m < 0 {
		return nil, fmt.Errorf("spanning: decoding forest size: %w", protowire.ParseError(m))
	}
	buf = buf[m:]

	out := make([]*Node, 0, count)
	for i := uint64(0); i < count; i++ {
		n, rest, err := decodeNode(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		buf = rest
	}
	return out, nil
}

func decodeNode(buf []byte) (*Node, []byte, error) {
	host, m := protowire.ConsumeString(buf)
	if m < 0 {
		return nil, nil, fmt.Errorf("spanning: decoding host: %w", protowire.ParseError(m))
	}
	buf = buf[m:]

	count, m := protowire.ConsumeVarint(buf)
	if m < 0 {
		return nil, nil, fmt.Errorf("spanning: decoding child count: %w", protowire.ParseError(m))
	}
	buf = buf[m:]

	n := &Node{Host: host, Children: make([]*Node, 0, count)}
	for i := uint64(0); i < count; i++ {
		child, rest, err := decodeNode(buf)
		if err != nil {
			return nil, nil, err
		}
		n.Children = append(n.Children, child)
		buf = rest
	}
	return n, buf, nil
}
