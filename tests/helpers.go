// Package tests contains scenarios involving the whole set of contracts.
package tests

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/chain/chaintest"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"github.com/nspcc-dev/nftdao-contract/daosync"
	"github.com/nspcc-dev/nftdao-contract/internal/testcontracts/nftrecv"
	"github.com/nspcc-dev/nftdao-contract/nft"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	nftHash  = util.Uint160{0x4e, 0x46, 0x54}
	daoHash  = util.Uint160{0xda, 0x0}
	syncHash = util.Uint160{0x5c}
	recvHash = util.Uint160{0x7e, 0xc7}
)

const (
	councilRole = "council"
	membersRole = "members"
)

// network is a set of contracts deployed to a single chain.
type network struct {
	chain   *chain.Chain
	owner   util.Uint160
	council util.Uint160

	nft  *chaintest.Invoker
	dao  *chaintest.Invoker
	sync *chaintest.Invoker
}

func newNetwork(t *testing.T) *network {
	c := chain.New(chain.Options{Logger: zaptest.NewLogger(t)})
	c.Deploy(nftHash, nft.New())
	c.Deploy(daoHash, dao.New())
	c.Deploy(syncHash, daosync.New())
	c.Deploy(recvHash, nftrecv.New())
	c.Fund(recvHash, nft.ApprovalStorageCost(10))

	n := &network{
		chain:   c,
		owner:   chaintest.NewAccount(t, c, nil),
		council: chaintest.NewAccount(t, c, nil),
	}
	n.nft = chaintest.NewInvoker(c, nftHash, n.owner)
	n.dao = chaintest.NewInvoker(c, daoHash, n.council)
	n.sync = chaintest.NewInvoker(c, syncHash, n.owner)

	n.nft.Invoke(t, nil, "new", map[string]any{
		"owner_id": n.owner,
		"metadata": nft.ContractMetadata{Name: "Membership", Symbol: "MBR"},
	})
	n.dao.Invoke(t, nil, "new", map[string]any{"policy": &policy.Policy{
		Roles: []policy.RolePermission{
			{Name: "all", Kind: policy.Everyone{}, Permissions: []string{"*:AddProposal"}},
			{Name: councilRole, Kind: policy.Group{Members: common.NewAccountSet(n.council)}, Permissions: []string{"*:*"}},
			{Name: membersRole, Kind: policy.Group{Members: common.NewAccountSet()}},
		},
		DefaultVotePolicy: policy.VotePolicy{WeightKind: policy.RoleWeight, Threshold: policy.Ratio(1, 2)},
		ProposalPeriod:    1000,
	}})
	n.sync.Invoke(t, nil, "new", map[string]any{
		"owner_id":        n.owner,
		"nft_contract_id": nftHash,
		"dao_account_id":  daoHash,
		"dao_owners_role": membersRole,
	})
	return n
}

// newMember returns account funded for transfers and approvals.
func (n *network) newMember(t *testing.T) util.Uint160 {
	return chaintest.NewAccount(t, n.chain, nft.ApprovalStorageCost(10))
}

func (n *network) mint(t *testing.T, id string, to util.Uint160) {
	n.nft.Invoke(t, nil, "nft_mint", map[string]any{"token_id": id, "receiver_id": to})
}

func (n *network) transfer(t *testing.T, from, to util.Uint160, id string) {
	n.nft.WithSigner(from).WithDeposit(big.NewInt(1)).
		Invoke(t, nil, "nft_transfer", map[string]any{"receiver_id": to, "token_id": id})
}

// transferCall sends token id to the receiver contract. Receipts failed
// during the transfer must belong to the failing methods only.
func (n *network) transferCall(t *testing.T, from util.Uint160, id, msg string, failing ...string) *chain.Outcome {
	out := n.nft.WithSigner(from).WithDeposit(big.NewInt(1)).Invoke(t, nil, "nft_transfer_call", map[string]any{
		"receiver_id": recvHash,
		"token_id":    id,
		"msg":         msg,
	})
	var failed []string
	for _, r := range out.Failed() {
		failed = append(failed, r.Method)
	}
	require.ElementsMatch(t, failing, failed)
	return out
}

func (n *network) ownerOf(t *testing.T, id string) util.Uint160 {
	var tok *nft.Token
	n.nft.View(t, &tok, "nft_token", map[string]string{"token_id": id})
	require.NotNil(t, tok)
	return tok.OwnerID
}

// syncMembers synchronizes holders, reconciles them with the DAO role and
// returns the number of staged actions.
func (n *network) syncMembers(t *testing.T) int {
	out := n.sync.Invoke(t, nil, "sync_nft_owners", nil)
	require.Equal(t, []string{"true"}, chaintest.Results(out, "handle_nft_owners_sync"))

	out = n.sync.Invoke(t, nil, "sync_dao_members", nil)
	res := chaintest.Results(out, "handle_dao_policy")
	require.Len(t, res, 1)
	var staged int
	require.NoError(t, json.Unmarshal([]byte(res[0]), &staged))
	return staged
}

// fileProposals drains pending table and returns ids of filed proposals.
func (n *network) fileProposals(t *testing.T) ([]uint64, int) {
	var (
		ids       []uint64
		discarded int
	)
	for {
		out := n.sync.Invoke(t, nil, "add_proposals", nil)
		require.Empty(t, out.Failed())

		var res daosync.BatchResult
		require.NoError(t, json.Unmarshal(out.Receipts[0].Value, &res))
		for _, r := range out.Find("add_proposal") {
			var id uint64
			require.NoError(t, json.Unmarshal(r.Value, &id))
			ids = append(ids, id)
		}
		discarded += res.Discarded
		if res.Remaining == 0 {
			return ids, discarded
		}
	}
}

func (n *network) approve(t *testing.T, ids ...uint64) {
	for _, id := range ids {
		n.dao.Invoke(t, dao.Approved, "act_proposal", map[string]any{"id": id, "action": dao.ActionVoteApprove})
	}
}

func (n *network) members(t *testing.T) common.AccountSet {
	var p policy.Policy
	n.dao.View(t, &p, "get_policy", nil)
	members, err := p.GroupMembers(membersRole)
	require.NoError(t, err)
	return members
}
