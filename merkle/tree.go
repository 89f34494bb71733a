// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"errors"

	"github.com/luxfi/ids"
)

var (
	ErrNoLeaves      = errors.New("tree has no leaves")
	ErrDuplicateLeaf = errors.New("duplicate leaf")
	ErrUnknownLeaf   = errors.New("leaf not in tree")
)

// Tree is an in-memory commitment tree over a fixed leaf set. It shares
// the sorted-pair combination rule with Verify, so the proofs it
// produces verify against its root. Odd nodes are promoted to the next
// level unchanged.
type Tree struct {
	levels [][]ids.ID
	index  map[ids.ID]int
}

// NewTree builds a tree over [leaves]. The leaf set must be non-empty
// and free of duplicates.
func NewTree(leaves []ids.ID) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	index := make(map[ids.ID]int, len(leaves))
	for i, leaf := range leaves {
		if _, ok := index[leaf]; ok {
			return nil, ErrDuplicateLeaf
		}
		index[leaf] = i
	}

	levels := [][]ids.ID{append([]ids.ID(nil), leaves...)}
	for level := levels[0]; len(level) > 1; {
		next := make([]ids.ID, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{
		levels: levels,
		index:  index,
	}, nil
}

// Root returns the commitment root of the tree.
func (t *Tree) Root() ids.ID {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the ordered sibling hashes proving membership of [leaf].
func (t *Tree) Proof(leaf ids.ID) ([]ids.ID, error) {
	idx, ok := t.index[leaf]
	if !ok {
		return nil, ErrUnknownLeaf
	}

	var proof []ids.ID
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof, nil
}
