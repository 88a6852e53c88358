package tests

import (
	"strings"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/chain/chaintest"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/daosync"
	"github.com/stretchr/testify/require"
)

func hasLog(out *chain.Outcome, substr string) bool {
	for _, l := range out.Logs() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// memberNetwork returns network with carol holding token "1" and being
// a DAO member.
func memberNetwork(t *testing.T) (*network, util.Uint160) {
	n := newNetwork(t)
	carol := n.newMember(t)
	n.mint(t, "1", carol)
	require.Equal(t, 1, n.syncMembers(t))
	ids, _ := n.fileProposals(t)
	n.approve(t, ids...)
	require.True(t, n.members(t).Equal(common.NewAccountSet(carol)))
	return n, carol
}

func TestTransferCallMembership(t *testing.T) {
	t.Run("kept", func(t *testing.T) {
		n, carol := memberNetwork(t)

		out := n.transferCall(t, carol, "1", "keep-it")
		require.Equal(t, []string{"true"}, chaintest.Results(out, "nft_resolve_transfer"))
		require.Equal(t, recvHash, n.ownerOf(t, "1"))

		require.Equal(t, 2, n.syncMembers(t))
		ids, _ := n.fileProposals(t)
		n.approve(t, ids...)
		require.True(t, n.members(t).Equal(common.NewAccountSet(recvHash)))
	})

	t.Run("returned", func(t *testing.T) {
		n, carol := memberNetwork(t)

		out := n.transferCall(t, carol, "1", "return-it")
		require.Equal(t, []string{"false"}, chaintest.Results(out, "nft_resolve_transfer"))
		require.Equal(t, carol, n.ownerOf(t, "1"))
		require.Zero(t, n.syncMembers(t))
	})

	t.Run("receiver failed", func(t *testing.T) {
		n, carol := memberNetwork(t)

		out := n.transferCall(t, carol, "1", "fail", "nft_on_transfer")
		require.Equal(t, []string{"false"}, chaintest.Results(out, "nft_resolve_transfer"))
		require.Equal(t, carol, n.ownerOf(t, "1"))
		require.Zero(t, n.syncMembers(t))
	})

	t.Run("forwarded", func(t *testing.T) {
		n, carol := memberNetwork(t)
		dave := n.newMember(t)

		out := n.transferCall(t, carol, "1", "forward:"+dave.StringLE())
		require.Equal(t, []string{"true"}, chaintest.Results(out, "nft_resolve_transfer"))
		require.True(t, hasLog(out, "could not be reverted"))
		require.Equal(t, dave, n.ownerOf(t, "1"))

		require.Equal(t, 2, n.syncMembers(t))
		var pending []daosync.PendingAction
		n.sync.View(t, &pending, "get_pending_actions", nil)
		require.ElementsMatch(t, []daosync.PendingAction{
			{AccountID: carol, Action: daosync.Remove},
			{AccountID: dave, Action: daosync.Add},
		}, pending)
	})

	t.Run("burned", func(t *testing.T) {
		n, carol := memberNetwork(t)

		out := n.transferCall(t, carol, "1", "burn")
		require.Equal(t, []string{"true"}, chaintest.Results(out, "nft_resolve_transfer"))
		require.True(t, hasLog(out, "burned"))

		require.Equal(t, 1, n.syncMembers(t))
		ids, _ := n.fileProposals(t)
		n.approve(t, ids...)
		require.Zero(t, n.members(t).Len())
	})
}
