// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle verifies allocation membership against the immutable
// distribution commitment. Verification is pure and fails closed: any
// mismatch or malformed proof yields false, never a partial result.
package merkle

import (
	"bytes"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"

	"github.com/luxfi/utils/wrappers"

	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/schedule"
)

// leafLen is identity (32) + allocation (32) + start (8) + end (8) +
// percentage (1).
const leafLen = identity.Size + 32 + wrappers.LongLen + wrappers.LongLen + wrappers.ByteLen

// Leaf computes the commitment leaf for an (identity, schedule) pair.
// The Claimed field is runtime state and is not part of the commitment.
func Leaf(id identity.Identity, s *schedule.Schedule) ids.ID {
	p := wrappers.Packer{MaxSize: leafLen}
	allocation := s.Allocation.Bytes32()
	p.PackFixedBytes(id.Bytes())
	p.PackFixedBytes(allocation[:])
	p.PackLong(s.Start)
	p.PackLong(s.End)
	p.PackByte(s.InitialUnlockPct)
	return hash.ComputeHash256Array(p.Bytes)
}

// Verify recomputes the path from [leaf] through the ordered sibling
// hashes in [proof] and compares the result to [root]. Siblings combine
// under the sorted-pair rule, so no position bits are carried in the
// proof.
func Verify(root ids.ID, leaf ids.ID, proof []ids.ID) bool {
	node := leaf
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// hashPair combines two nodes with the smaller hash first.
func hashPair(a, b ids.ID) ids.ID {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	buf := make([]byte, 2*ids.IDLen)
	copy(buf, a[:])
	copy(buf[ids.IDLen:], b[:])
	return hash.ComputeHash256Array(buf)
}
