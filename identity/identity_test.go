// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
)

func TestNativeAddressRoundTrip(t *testing.T) {
	require := require.New(t)

	addr := ids.ShortID{0xde, 0xad, 0xbe, 0xef, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	id := FromAddress(addr)

	native, ok := id.NativeAddress()
	require.True(ok)
	require.Equal(addr, native)
}

func TestForeignIdentityIsNotNative(t *testing.T) {
	require := require.New(t)

	// Same low 20 bytes as a native address, but a non-zero high byte
	// marks the identity as foreign.
	addr := ids.ShortID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	id := FromAddress(addr)
	id[0] = 0xff

	_, ok := id.NativeAddress()
	require.False(ok)
}

func TestZeroIdentityIsNotNative(t *testing.T) {
	require := require.New(t)

	_, ok := Empty.NativeAddress()
	require.False(ok)
	require.True(Empty.IsZero())
}

func TestFromBytes(t *testing.T) {
	require := require.New(t)

	_, err := FromBytes(make([]byte, 31))
	require.ErrorIs(err, ErrWrongSize)

	raw := make([]byte, Size)
	raw[0] = 7
	id, err := FromBytes(raw)
	require.NoError(err)
	require.Equal(raw, id.Bytes())
}

func TestFromString(t *testing.T) {
	require := require.New(t)

	addr := ids.ShortID{21, 22, 23}
	id := FromAddress(addr)

	parsed, err := FromString(id.String())
	require.NoError(err)
	require.Equal(id, parsed)

	_, err = FromString("0xzz")
	require.Error(err)

	_, err = FromString("0x00")
	require.ErrorIs(err, ErrWrongSize)
}
