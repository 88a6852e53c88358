package dao_test

import (
	"math/big"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/chain/chaintest"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var daoHash = util.Uint160{0xda, 0x0}

type env struct {
	*chaintest.Invoker
	alice, bob, carol, stranger util.Uint160
}

var funds = big.NewInt(1000)

func newDAO(t *testing.T, modify func(p *policy.Policy)) *env {
	c := chain.New(chain.Options{Logger: zaptest.NewLogger(t)})
	c.Deploy(daoHash, dao.New())

	e := &env{
		alice:    chaintest.NewAccount(t, c, funds),
		bob:      chaintest.NewAccount(t, c, funds),
		carol:    chaintest.NewAccount(t, c, funds),
		stranger: chaintest.NewAccount(t, c, funds),
	}
	p := &policy.Policy{
		Roles: []policy.RolePermission{
			{Name: "all", Kind: policy.Everyone{}, Permissions: []string{"policy:AddProposal"}},
			{Name: "council", Kind: policy.Group{Members: common.NewAccountSet(e.alice, e.bob, e.carol)},
				Permissions: []string{"*:*"}},
			{Name: "holders", Kind: policy.Group{Members: common.NewAccountSet()}},
		},
		DefaultVotePolicy: policy.VotePolicy{WeightKind: policy.RoleWeight, Threshold: policy.Ratio(1, 2)},
		ProposalPeriod:    100,
	}
	if modify != nil {
		modify(p)
	}

	e.Invoker = chaintest.NewInvoker(c, daoHash, e.alice)
	e.Invoke(t, nil, "new", map[string]any{"policy": p})
	return e
}

func addMember(acc util.Uint160, role string) dao.AddProposalArgs {
	return dao.AddProposalArgs{Proposal: dao.ProposalInput{
		Description: "add member",
		Kind:        dao.AddMemberToRole{MemberID: acc, Role: role},
	}}
}

func (e *env) propose(t *testing.T, args dao.AddProposalArgs) uint64 {
	var id uint64
	out := e.Invoke(t, nil, "add_proposal", args)
	require.NoError(t, chain.DecodeArgs(out.Receipts[0].Value, &id))
	return id
}

func (e *env) act(t *testing.T, from util.Uint160, id uint64, action string, want dao.Status) {
	e.WithSigner(from).Invoke(t, want, "act_proposal", map[string]any{"id": id, "action": action})
}

func (e *env) policy(t *testing.T) *policy.Policy {
	var p policy.Policy
	e.View(t, &p, "get_policy", nil)
	return &p
}

func (e *env) proposal(t *testing.T, id uint64) dao.Proposal {
	var p dao.Proposal
	e.View(t, &p, "get_proposal", map[string]uint64{"id": id})
	return p
}

func TestDAOInit(t *testing.T) {
	e := newDAO(t, nil)
	e.InvokeFail(t, dao.ErrAlreadyInitialized, "new", map[string]any{"policy": e.policy(t)})

	members, err := e.policy(t).GroupMembers("council")
	require.NoError(t, err)
	require.True(t, members.Equal(common.NewAccountSet(e.alice, e.bob, e.carol)))

	t.Run("not initialized", func(t *testing.T) {
		c := chain.New(chain.Options{Logger: zaptest.NewLogger(t)})
		c.Deploy(daoHash, dao.New())
		inv := chaintest.NewInvoker(c, daoHash, e.alice)
		inv.InvokeFail(t, dao.ErrNotInitialized, "get_policy", nil)
		inv.InvokeFail(t, common.ErrPrecondition, "new", map[string]any{"policy": map[string]any{"roles": []any{}}})
	})
}

func TestAddProposal(t *testing.T) {
	e := newDAO(t, nil)

	require.Equal(t, uint64(0), e.propose(t, addMember(e.stranger, "holders")))
	require.Equal(t, uint64(1), e.propose(t, addMember(e.bob, "holders")))

	var last uint64
	e.View(t, &last, "get_last_proposal_id", nil)
	require.Equal(t, uint64(2), last)

	p := e.proposal(t, 0)
	require.Equal(t, e.alice, p.Proposer)
	require.Equal(t, dao.InProgress, p.Status)
	require.Equal(t, dao.AddMemberToRole{MemberID: e.stranger, Role: "holders"}, p.Kind)
	hash, err := base58.Decode(p.Hash)
	require.NoError(t, err)
	require.Len(t, hash, 32)
	require.NotEqual(t, p.Hash, e.proposal(t, 1).Hash)

	t.Run("unknown role", func(t *testing.T) {
		e.InvokeFail(t, policy.ErrRoleNotFound, "add_proposal", addMember(e.bob, "guests"))
	})
	t.Run("not a group", func(t *testing.T) {
		e.InvokeFail(t, policy.ErrWrongRoleKind, "add_proposal", addMember(e.bob, "all"))
	})
	t.Run("not permitted", func(t *testing.T) {
		e.WithSigner(e.stranger).InvokeFail(t, common.ErrUnauthorized, "add_proposal", addMember(e.bob, "holders"))
	})
	t.Run("unknown proposal", func(t *testing.T) {
		e.InvokeFail(t, dao.ErrProposalNotFound, "get_proposal", map[string]uint64{"id": 42})
	})
}

func TestActProposal(t *testing.T) {
	e := newDAO(t, nil)
	id := e.propose(t, addMember(e.stranger, "holders"))

	voteArgs := func(action string) map[string]any {
		return map[string]any{"id": id, "action": action}
	}

	e.act(t, e.alice, id, dao.ActionVoteApprove, dao.InProgress)
	e.InvokeFail(t, dao.ErrAlreadyVoted, "act_proposal", voteArgs(dao.ActionVoteApprove))
	e.InvokeFail(t, dao.ErrAlreadyVoted, "act_proposal", voteArgs(dao.ActionVoteReject))
	e.WithSigner(e.stranger).InvokeFail(t, common.ErrUnauthorized, "act_proposal", voteArgs(dao.ActionVoteApprove))
	e.InvokeFail(t, chain.ErrInvalidArguments, "act_proposal", voteArgs("VoteMaybe"))

	// 3 members with 1/2 ratio require 2 votes.
	e.act(t, e.bob, id, dao.ActionVoteApprove, dao.Approved)

	p := e.proposal(t, id)
	require.Equal(t, dao.Approved, p.Status)
	require.Equal(t, 2, p.VoteCounts[dao.ActionVoteApprove])

	members, err := e.policy(t).GroupMembers("holders")
	require.NoError(t, err)
	require.True(t, members.Equal(common.NewAccountSet(e.stranger)))

	e.WithSigner(e.carol).InvokeFail(t, dao.ErrNotInProgress, "act_proposal", voteArgs(dao.ActionVoteApprove))

	t.Run("remove member", func(t *testing.T) {
		id := e.propose(t, dao.AddProposalArgs{Proposal: dao.ProposalInput{
			Kind: dao.RemoveMemberFromRole{MemberID: e.stranger, Role: "holders"},
		}})
		e.act(t, e.carol, id, dao.ActionVoteApprove, dao.InProgress)
		e.act(t, e.alice, id, dao.ActionVoteApprove, dao.Approved)

		members, err := e.policy(t).GroupMembers("holders")
		require.NoError(t, err)
		require.Zero(t, members.Len())
	})
}

func TestProposalDecisions(t *testing.T) {
	const bond = 10

	e := newDAO(t, func(p *policy.Policy) {
		p.ProposalBond = common.NewU128(bond)
	})
	e.WithDeposit(big.NewInt(bond-1)).InvokeFail(t, common.ErrPrecondition, "add_proposal", addMember(e.bob, "holders"))

	withBond := e.WithDeposit(big.NewInt(bond))
	propose := func(t *testing.T) uint64 {
		var id uint64
		out := withBond.Invoke(t, nil, "add_proposal", addMember(e.bob, "holders"))
		require.NoError(t, chain.DecodeArgs(out.Receipts[0].Value, &id))
		return id
	}
	requireBalance := func(t *testing.T, want int64) {
		require.Equal(t, big.NewInt(want).String(), e.Chain.Balance(e.alice).String())
	}

	t.Run("reject", func(t *testing.T) {
		id := propose(t)
		requireBalance(t, funds.Int64()-bond)

		e.act(t, e.bob, id, dao.ActionVoteReject, dao.InProgress)
		e.act(t, e.carol, id, dao.ActionVoteReject, dao.Rejected)
		requireBalance(t, funds.Int64())

		members, err := e.policy(t).GroupMembers("holders")
		require.NoError(t, err)
		require.Zero(t, members.Len())
	})
	t.Run("remove", func(t *testing.T) {
		id := propose(t)
		e.act(t, e.bob, id, dao.ActionVoteRemove, dao.InProgress)
		e.act(t, e.carol, id, dao.ActionVoteRemove, dao.Removed)
		requireBalance(t, funds.Int64()-bond)
	})
}

func TestProposalExpiration(t *testing.T) {
	e := newDAO(t, func(p *policy.Policy) {
		p.ProposalPeriod = 2
	})
	id := e.propose(t, addMember(e.bob, "holders"))
	for i := 0; i < 3; i++ {
		e.Invoke(t, nil, "get_last_proposal_id", nil)
	}

	e.act(t, e.alice, id, dao.ActionVoteApprove, dao.Expired)
	require.Equal(t, dao.Expired, e.proposal(t, id).Status)
	require.Zero(t, e.proposal(t, id).VoteCounts[dao.ActionVoteApprove])
	e.InvokeFail(t, dao.ErrNotInProgress, "act_proposal", map[string]any{"id": id, "action": dao.ActionVoteApprove})
}

func TestChangePolicy(t *testing.T) {
	e := newDAO(t, nil)

	p := e.policy(t)
	require.NoError(t, p.UpdateGroupMembers("holders", common.NewAccountSet(e.bob, e.stranger)))
	id := e.propose(t, dao.AddProposalArgs{Proposal: dao.ProposalInput{
		Description: "update holders",
		Kind:        dao.ChangePolicy{Policy: *p},
	}})

	t.Run("failed execution", func(t *testing.T) {
		other := e.propose(t, addMember(e.carol, "holders"))

		removed := e.policy(t)
		removed.Roles = removed.Roles[:2]
		change := e.propose(t, dao.AddProposalArgs{Proposal: dao.ProposalInput{
			Kind: dao.ChangePolicy{Policy: *removed},
		}})
		e.act(t, e.alice, change, dao.ActionVoteApprove, dao.InProgress)
		e.act(t, e.bob, change, dao.ActionVoteApprove, dao.Approved)

		e.act(t, e.alice, other, dao.ActionVoteApprove, dao.InProgress)
		e.act(t, e.bob, other, dao.ActionVoteApprove, dao.Failed)

		restore := e.propose(t, dao.AddProposalArgs{Proposal: dao.ProposalInput{
			Kind: dao.ChangePolicy{Policy: *p},
		}})
		e.act(t, e.alice, restore, dao.ActionVoteApprove, dao.InProgress)
		e.act(t, e.bob, restore, dao.ActionVoteApprove, dao.Approved)
	})

	members, err := e.policy(t).GroupMembers("holders")
	require.NoError(t, err)
	require.True(t, members.Equal(common.NewAccountSet(e.bob, e.stranger)))

	e.act(t, e.alice, id, dao.ActionVoteApprove, dao.InProgress)
	e.act(t, e.carol, id, dao.ActionVoteApprove, dao.Approved)
	require.Equal(t, "update holders", e.proposal(t, id).Description)
}
