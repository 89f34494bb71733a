// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/vesting/delegation"
	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/ledger"
	"github.com/luxfi/vesting/merkle"
	"github.com/luxfi/vesting/schedule"
)

var keys = secp256k1.TestKeys()

type noopTransferer struct{}

func (noopTransferer) Transfer(ids.ShortID, ids.ShortID, *uint256.Int) error {
	return nil
}

type testEnv struct {
	service *Service
	clock   *ledger.Clock

	admin  ids.ShortID
	caller ids.ShortID
	id     identity.Identity
	proof  []ids.ID
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)

	caller := keys[2].PublicKey().Address()
	id := identity.FromAddress(caller)
	sched := &schedule.Schedule{
		Allocation:       uint256.NewInt(1000),
		Claimed:          new(uint256.Int),
		Start:            0,
		End:              100,
		InitialUnlockPct: 10,
	}
	leaf := merkle.Leaf(id, sched)
	tree, err := merkle.NewTree([]ids.ID{leaf, {0x01}})
	require.NoError(err)
	proof, err := tree.Proof(leaf)
	require.NoError(err)

	clock := &ledger.Clock{}
	clock.Set(time.Unix(0, 0))
	admin := keys[1].PublicKey().Address()

	l, err := ledger.New(ledger.Config{
		CommitmentRoot:  tree.Root(),
		AuthoritySigner: keys[0].PublicKey().Address(),
		Admin:           admin,
		DB:              memdb.New(),
		Transfer:        noopTransferer{},
		Log:             log.NoLog{},
		Clock:           clock,
	})
	require.NoError(err)

	return &testEnv{
		service: NewService(l),
		clock:   clock,
		admin:   admin,
		caller:  caller,
		id:      id,
		proof:   proof,
	}
}

func (e *testEnv) activateArgs() *ActivateArgs {
	proof := make([]string, len(e.proof))
	for i, p := range e.proof {
		proof[i] = p.String()
	}
	return &ActivateArgs{
		Caller:           e.caller.String(),
		Identity:         e.id.String(),
		Allocation:       "1000",
		Start:            0,
		End:              100,
		InitialUnlockPct: 10,
		Proof:            proof,
	}
}

func TestServiceActivateAndQuery(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	var activateReply ActivateReply
	require.NoError(env.service.Activate(nil, env.activateArgs(), &activateReply))
	require.Equal(env.caller.String(), activateReply.Recipient)

	var claimable ClaimableAmountReply
	require.NoError(env.service.ClaimableAmount(nil, &ClaimableAmountArgs{
		Recipient: env.caller.String(),
	}, &claimable))
	require.Equal("100", claimable.Amount)

	require.NoError(env.service.ClaimableAmountByIdentity(nil, &ClaimableAmountByIdentityArgs{
		Identity: env.id.String(),
	}, &claimable))
	require.Equal("100", claimable.Amount)

	var sched GetScheduleReply
	require.NoError(env.service.GetSchedule(nil, &GetScheduleArgs{
		Recipient: env.caller.String(),
	}, &sched))
	require.Equal("1000", sched.Allocation)
	require.Equal("0", sched.Claimed)
	require.Equal(uint64(100), sched.End)
	require.Equal(uint8(10), sched.InitialUnlockPct)
}

func TestServiceRelease(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	var tokenReply SetTokenAddressReply
	require.NoError(env.service.SetTokenAddress(nil, &SetTokenAddressArgs{
		Caller: env.admin.String(),
		Token:  ids.ShortID{0x70}.String(),
	}, &tokenReply))
	require.True(tokenReply.Success)

	var activateReply ActivateReply
	require.NoError(env.service.Activate(nil, env.activateArgs(), &activateReply))

	env.clock.Set(time.Unix(150, 0))

	var releaseReply ReleaseReply
	require.NoError(env.service.Release(nil, &ReleaseArgs{
		Recipient: env.caller.String(),
	}, &releaseReply))
	require.True(releaseReply.Success)

	var claimable ClaimableAmountReply
	require.NoError(env.service.ClaimableAmount(nil, &ClaimableAmountArgs{
		Recipient: env.caller.String(),
	}, &claimable))
	require.Equal("0", claimable.Amount)
}

func TestServiceDelegatedActivate(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	// Delegating the native identity to a third-party wallet requires
	// the authority's signature.
	recipient := ids.ShortID{0x55}
	args := env.activateArgs()
	args.Recipient = recipient.String()

	err := env.service.Activate(nil, args, &ActivateReply{})
	require.ErrorIs(err, ledger.ErrUnauthorizedDelegation)

	sig, err := delegation.Sign(env.id, recipient, keys[0])
	require.NoError(err)
	args.Signature = "0x" + hex.EncodeToString(sig)

	var reply ActivateReply
	require.NoError(env.service.Activate(nil, args, &reply))
	require.Equal(recipient.String(), reply.Recipient)
}

func TestServiceMigration(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	require.NoError(env.service.Activate(nil, env.activateArgs(), &ActivateReply{}))

	newWallet := ids.ShortID{0x42}
	var reply UpdateRecipientWalletReply
	require.NoError(env.service.UpdateRecipientWallet(nil, &UpdateRecipientWalletArgs{
		Caller:       env.caller.String(),
		Identity:     env.id.String(),
		NewRecipient: newWallet.String(),
	}, &reply))
	require.True(reply.Success)

	var sched GetScheduleReply
	require.NoError(env.service.GetSchedule(nil, &GetScheduleArgs{
		Recipient: newWallet.String(),
	}, &sched))
	require.Equal("1000", sched.Allocation)

	err := env.service.GetSchedule(nil, &GetScheduleArgs{
		Recipient: env.caller.String(),
	}, &GetScheduleReply{})
	require.ErrorIs(err, ledger.ErrNoAllocation)
}

func TestServiceRejectsMalformedArgs(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	args := env.activateArgs()
	args.Identity = "not-hex"
	require.Error(env.service.Activate(nil, args, &ActivateReply{}))

	args = env.activateArgs()
	args.Allocation = "12x"
	require.Error(env.service.Activate(nil, args, &ActivateReply{}))

	args = env.activateArgs()
	args.Proof = []string{"!!"}
	require.Error(env.service.Activate(nil, args, &ActivateReply{}))

	require.Error(env.service.Release(nil, &ReleaseArgs{Recipient: "%"}, &ReleaseReply{}))
}
