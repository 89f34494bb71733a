// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package schedule implements the vesting schedule record and the pure
// vesting calculator mapping a schedule and a timestamp to a vested
// amount.
package schedule

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/luxfi/utils/wrappers"
)

var (
	ErrNilAmount      = errors.New("schedule amount is nil")
	ErrZeroAllocation = errors.New("schedule allocation is zero")
	ErrBadPercentage  = errors.New("initial unlock percentage above 100")
	ErrBadTimeRange   = errors.New("schedule start is not before end")
	ErrCorrupted      = errors.New("schedule bytes corrupted")

	pctDenominator = uint256.NewInt(100)
)

// encodedLen is the fixed byte length of an encoded schedule:
// allocation (32) + claimed (32) + start (8) + end (8) + percentage (1).
const encodedLen = 32 + 32 + wrappers.LongLen + wrappers.LongLen + wrappers.ByteLen

// Schedule is the allocation, vesting timing and claimed-so-far record
// for one recipient.
type Schedule struct {
	// Allocation is the total amount granted to the recipient.
	Allocation *uint256.Int
	// Claimed is the amount already withdrawn. Monotonically
	// non-decreasing and never above the vested amount.
	Claimed *uint256.Int
	// Start and End bound the linear vesting window, as unix seconds.
	Start uint64
	End   uint64
	// InitialUnlockPct of the allocation (0..100) vests immediately at
	// Start; the remainder vests linearly until End.
	InitialUnlockPct uint8
}

// Verify checks the structural invariants of a schedule. Degenerate
// schedules with Start == End are rejected here so the linear term's
// divisor is never zero.
func (s *Schedule) Verify() error {
	switch {
	case s == nil, s.Allocation == nil, s.Claimed == nil:
		return ErrNilAmount
	case s.Allocation.IsZero():
		return ErrZeroAllocation
	case s.InitialUnlockPct > 100:
		return ErrBadPercentage
	case s.Start >= s.End:
		return ErrBadTimeRange
	}
	return nil
}

// VestedAt returns the cumulative amount unlocked at [now], independent
// of how much has been withdrawn. All divisions truncate toward zero so
// the sum of releases can never exceed the allocation.
func (s *Schedule) VestedAt(now uint64) *uint256.Int {
	if now < s.Start {
		return new(uint256.Int)
	}
	if now >= s.End {
		return s.Allocation.Clone()
	}

	pct := uint256.NewInt(uint64(s.InitialUnlockPct))
	initial, _ := new(uint256.Int).MulDivOverflow(s.Allocation, pct, pctDenominator)

	remaining := new(uint256.Int).Sub(s.Allocation, initial)
	elapsed := uint256.NewInt(now - s.Start)
	span := uint256.NewInt(s.End - s.Start)
	linear, _ := new(uint256.Int).MulDivOverflow(remaining, elapsed, span)

	return initial.Add(initial, linear)
}

// ClaimableAt returns the vested amount minus the amount already
// claimed. In a correct ledger Claimed never exceeds the vested amount;
// the subtraction still clamps at zero rather than wrapping.
func (s *Schedule) ClaimableAt(now uint64) *uint256.Int {
	vested := s.VestedAt(now)
	if s.Claimed.Gt(vested) {
		return new(uint256.Int)
	}
	return vested.Sub(vested, s.Claimed)
}

// Clone returns a deep copy of the schedule.
func (s *Schedule) Clone() *Schedule {
	return &Schedule{
		Allocation:       s.Allocation.Clone(),
		Claimed:          s.Claimed.Clone(),
		Start:            s.Start,
		End:              s.End,
		InitialUnlockPct: s.InitialUnlockPct,
	}
}

// Bytes returns the fixed-layout encoding of the schedule.
func (s *Schedule) Bytes() []byte {
	p := wrappers.Packer{MaxSize: encodedLen}
	allocation := s.Allocation.Bytes32()
	claimed := s.Claimed.Bytes32()
	p.PackFixedBytes(allocation[:])
	p.PackFixedBytes(claimed[:])
	p.PackLong(s.Start)
	p.PackLong(s.End)
	p.PackByte(s.InitialUnlockPct)
	return p.Bytes
}

// Parse decodes a schedule from its fixed-layout encoding.
func Parse(b []byte) (*Schedule, error) {
	if len(b) != encodedLen {
		return nil, ErrCorrupted
	}
	p := wrappers.Packer{Bytes: b}
	s := &Schedule{
		Allocation: new(uint256.Int).SetBytes(p.UnpackFixedBytes(32)),
		Claimed:    new(uint256.Int).SetBytes(p.UnpackFixedBytes(32)),
		Start:      p.UnpackLong(),
		End:        p.UnpackLong(),
	}
	s.InitialUnlockPct = p.UnpackByte()
	if p.Errored() {
		return nil, ErrCorrupted
	}
	return s, nil
}
