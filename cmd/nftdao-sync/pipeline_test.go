package main

import (
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/chain/chaintest"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"github.com/nspcc-dev/nftdao-contract/daosync"
	"github.com/nspcc-dev/nftdao-contract/nft"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	nftHash = util.Uint160{0x4e}
	daoHash = util.Uint160{0xda}
)

func newRelay(t *testing.T, holders int) *relay {
	logger := zaptest.NewLogger(t)
	c := chain.New(chain.Options{Logger: logger})
	c.Deploy(nftHash, nft.New())
	c.Deploy(daoHash, dao.New())

	owner := chaintest.NewAccount(t, c, nil)
	nftInv := chaintest.NewInvoker(c, nftHash, owner)
	nftInv.Invoke(t, nil, "new", map[string]any{
		"owner_id": owner,
		"metadata": nft.ContractMetadata{Name: "Membership", Symbol: "MBR"},
	})
	for i := 0; i < holders; i++ {
		nftInv.Invoke(t, nil, "nft_mint", map[string]any{
			"token_id":    string(rune('a' + i)),
			"receiver_id": util.Uint160{0xac, byte(i)},
		})
	}

	chaintest.NewInvoker(c, daoHash, owner).Invoke(t, nil, "new", map[string]any{
		"policy": &policy.Policy{
			Roles: []policy.RolePermission{
				{Name: "all", Kind: policy.Everyone{}, Permissions: []string{"*:AddProposal"}},
				{Name: "members", Kind: policy.Group{Members: common.NewAccountSet(owner)}, Permissions: []string{"*:*"}},
			},
			DefaultVotePolicy: policy.VotePolicy{WeightKind: policy.RoleWeight, Threshold: policy.Ratio(1, 2)},
		},
	})

	return &relay{
		chain:     c,
		contract:  syncAccount(owner),
		owner:     owner,
		maxRounds: 10,
		log:       logger,
	}
}

func lastProposalID(t *testing.T, r *relay) uint64 {
	var id uint64
	chaintest.NewInvoker(r.chain, daoHash, r.owner).View(t, &id, "get_last_proposal_id", nil)
	return id
}

func TestRelay(t *testing.T) {
	const n = 20

	r := newRelay(t, n)
	prm := setupPrm{nft: nftHash, dao: daoHash, role: "members"}
	require.NoError(t, r.setup(prm))
	require.NoError(t, r.setup(prm))

	require.NoError(t, r.run(stageAll))
	// Every holder is proposed for addition, the owner for removal.
	require.Equal(t, uint64(n+1), lastProposalID(t, r))

	require.NoError(t, r.run(stageProposals))
	require.Equal(t, uint64(n+1), lastProposalID(t, r))

	require.NoError(t, r.run(stagePolicy))
	require.Equal(t, uint64(n+2), lastProposalID(t, r))

	var p dao.Proposal
	chaintest.NewInvoker(r.chain, daoHash, r.owner).View(t, &p, "get_proposal", map[string]uint64{"id": n + 1})
	change, ok := p.Kind.(dao.ChangePolicy)
	require.True(t, ok)
	members, err := change.Policy.GroupMembers("members")
	require.NoError(t, err)
	require.Equal(t, n, members.Len())

	t.Run("setup", func(t *testing.T) {
		require.NoError(t, r.setup(setupPrm{nft: nftHash, dao: daoHash, role: "all"}))
		require.ErrorIs(t, r.run(stageMembers), policy.ErrWrongRoleKind)

		require.Error(t, r.setup(setupPrm{nft: daoHash, dao: daoHash, role: "all"}))

		other := *r
		other.owner = util.Uint160{0xff}
		require.Error(t, other.setup(prm))
	})

	t.Run("unknown stage", func(t *testing.T) {
		require.Error(t, r.run("everything"))
	})

	t.Run("rounds", func(t *testing.T) {
		r := newRelay(t, daosync.MaxProposalsPerCall+1)
		r.maxRounds = 1
		require.NoError(t, r.setup(prm))
		require.NoError(t, r.run(stageOwners))
		require.NoError(t, r.run(stageMembers))
		require.ErrorIs(t, r.run(stageProposals), errRoundsExceeded)
		require.NoError(t, r.run(stageProposals))
	})
}
