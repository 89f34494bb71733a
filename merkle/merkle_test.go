// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/schedule"
)

func testEntries(n int) ([]identity.Identity, []*schedule.Schedule, []ids.ID) {
	identities := make([]identity.Identity, n)
	schedules := make([]*schedule.Schedule, n)
	leaves := make([]ids.ID, n)
	for i := 0; i < n; i++ {
		identities[i] = identity.FromAddress(ids.ShortID{byte(i + 1)})
		schedules[i] = &schedule.Schedule{
			Allocation:       uint256.NewInt(uint64(1000 * (i + 1))),
			Claimed:          new(uint256.Int),
			Start:            uint64(100 * i),
			End:              uint64(100*i + 1000),
			InitialUnlockPct: uint8(i * 5),
		}
		leaves[i] = Leaf(identities[i], schedules[i])
	}
	return identities, schedules, leaves
}

func TestVerifyAllLeaves(t *testing.T) {
	require := require.New(t)

	for _, n := range []int{1, 2, 3, 7, 8, 13} {
		_, _, leaves := testEntries(n)
		tree, err := NewTree(leaves)
		require.NoError(err)

		for _, leaf := range leaves {
			proof, err := tree.Proof(leaf)
			require.NoError(err)
			require.True(Verify(tree.Root(), leaf, proof), "n=%d", n)
		}
	}
}

func TestVerifySingleLeaf(t *testing.T) {
	require := require.New(t)

	_, _, leaves := testEntries(1)
	tree, err := NewTree(leaves[:1])
	require.NoError(err)

	proof, err := tree.Proof(leaves[0])
	require.NoError(err)
	require.Empty(proof)
	require.True(Verify(tree.Root(), leaves[0], proof))
}

func TestVerifyRejectsTamperedFields(t *testing.T) {
	require := require.New(t)

	identities, schedules, leaves := testEntries(4)
	tree, err := NewTree(leaves)
	require.NoError(err)
	proof, err := tree.Proof(leaves[2])
	require.NoError(err)

	id, s := identities[2], schedules[2]

	tamperings := map[string]func() ids.ID{
		"allocation": func() ids.ID {
			c := s.Clone()
			c.Allocation.AddUint64(c.Allocation, 1)
			return Leaf(id, c)
		},
		"start": func() ids.ID {
			c := s.Clone()
			c.Start ^= 1
			return Leaf(id, c)
		},
		"end": func() ids.ID {
			c := s.Clone()
			c.End ^= 1
			return Leaf(id, c)
		},
		"percentage": func() ids.ID {
			c := s.Clone()
			c.InitialUnlockPct ^= 1
			return Leaf(id, c)
		},
		"identity": func() ids.ID {
			tampered := id
			tampered[31] ^= 1
			return Leaf(tampered, s)
		},
	}
	for name, tamper := range tamperings {
		require.False(Verify(tree.Root(), tamper(), proof), "tampered %s verified", name)
	}

	require.True(Verify(tree.Root(), leaves[2], proof))
}

func TestVerifyRejectsWrongProof(t *testing.T) {
	require := require.New(t)

	_, _, leaves := testEntries(5)
	tree, err := NewTree(leaves)
	require.NoError(err)

	proof, err := tree.Proof(leaves[0])
	require.NoError(err)

	// wrong leaf for this proof
	require.False(Verify(tree.Root(), leaves[1], proof))
	// truncated proof
	require.False(Verify(tree.Root(), leaves[0], proof[:len(proof)-1]))
	// extended proof
	require.False(Verify(tree.Root(), leaves[0], append(append([]ids.ID(nil), proof...), ids.ID{1})))
	// tampered sibling
	tampered := append([]ids.ID(nil), proof...)
	tampered[0][0] ^= 1
	require.False(Verify(tree.Root(), leaves[0], tampered))
	// wrong root
	require.False(Verify(ids.ID{1}, leaves[0], proof))
}

func TestLeafExcludesClaimed(t *testing.T) {
	require := require.New(t)

	identities, schedules, _ := testEntries(1)
	claimed := schedules[0].Clone()
	claimed.Claimed = uint256.NewInt(500)
	require.Equal(Leaf(identities[0], schedules[0]), Leaf(identities[0], claimed))
}

func TestNewTreeRejectsBadLeafSets(t *testing.T) {
	require := require.New(t)

	_, err := NewTree(nil)
	require.ErrorIs(err, ErrNoLeaves)

	_, _, leaves := testEntries(2)
	_, err = NewTree([]ids.ID{leaves[0], leaves[1], leaves[0]})
	require.ErrorIs(err, ErrDuplicateLeaf)
}

func TestProofUnknownLeaf(t *testing.T) {
	require := require.New(t)

	_, _, leaves := testEntries(3)
	tree, err := NewTree(leaves)
	require.NoError(err)

	_, err = tree.Proof(ids.ID{0xff})
	require.ErrorIs(err, ErrUnknownLeaf)
}
