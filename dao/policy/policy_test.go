package policy

import (
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = util.Uint160{0xa1}
	bob   = util.Uint160{0xb0}
)

func testPolicy() *Policy {
	return &Policy{
		Roles: []RolePermission{
			{Name: "all", Kind: Everyone{}, Permissions: []string{"*:AddProposal"}},
			{Name: "council", Kind: Group{Members: common.NewAccountSet(alice)}, Permissions: []string{"*:*"},
				VotePolicy: map[string]VotePolicy{"ChangePolicy": {WeightKind: RoleWeight, Threshold: Weight(1)}}},
			{Name: "holders", Kind: Member{Balance: common.NewU128(5)}, Permissions: []string{"Vote:VoteApprove"}},
		},
		DefaultVotePolicy: VotePolicy{WeightKind: RoleWeight, Threshold: Ratio(1, 2)},
		ProposalPeriod:    100,
	}
}

func TestPolicyJSON(t *testing.T) {
	p := testPolicy()

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	roles := raw["roles"].([]any)
	require.Equal(t, "Everyone", roles[0].(map[string]any)["kind"])
	require.Equal(t, map[string]any{"Group": []any{"0x" + alice.StringLE()}}, roles[1].(map[string]any)["kind"])
	require.Equal(t, map[string]any{"Member": "5"}, roles[2].(map[string]any)["kind"])
	require.Equal(t, []any{1.0, 2.0}, raw["default_vote_policy"].(map[string]any)["threshold"])
	require.Equal(t, "100", raw["proposal_period"])

	actual, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, p.Roles[0].Kind, actual.Roles[0].Kind)
	members, err := actual.GroupMembers("council")
	require.NoError(t, err)
	require.True(t, members.Equal(common.NewAccountSet(alice)))
	require.Equal(t, uint64(5), actual.Roles[2].Kind.(Member).Balance.Uint64())
	require.Equal(t, Ratio(1, 2), actual.DefaultVotePolicy.Threshold)
	require.Equal(t, uint64(1), actual.Roles[1].VotePolicy["ChangePolicy"].Threshold.Weight.Uint64())

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{
			`{"roles":[]}`,
			`{"roles":[{"name":"x","kind":"Nobody"}]}`,
			`{"roles":[{"name":"x","kind":{"Group":[],"Member":"1"}}]}`,
			`{"roles":[{"name":"x","kind":{"Council":[]}}]}`,
			`{"roles":[{"name":"x","kind":"Everyone"}],"default_vote_policy":{"threshold":[3,2]}}`,
		} {
			_, err := Decode([]byte(s))
			require.Error(t, err, s)
		}
	})
}

func TestPolicyGroups(t *testing.T) {
	p := testPolicy()

	_, err := p.Role("unknown")
	require.ErrorIs(t, err, ErrRoleNotFound)
	require.ErrorIs(t, err, common.ErrPrecondition)

	_, err = p.GroupMembers("all")
	require.ErrorIs(t, err, ErrWrongRoleKind)
	require.ErrorIs(t, p.UpdateGroupMembers("holders", common.NewAccountSet()), ErrWrongRoleKind)

	require.NoError(t, p.AddMember("council", bob))
	members, err := p.GroupMembers("council")
	require.NoError(t, err)
	require.True(t, members.Equal(common.NewAccountSet(alice, bob)))

	members.Remove(alice)
	stored, _ := p.GroupMembers("council")
	require.Equal(t, 2, stored.Len(), "returned set is a copy")

	require.NoError(t, p.RemoveMember("council", alice))
	require.NoError(t, p.UpdateGroupMembers("council", common.NewAccountSet(alice)))
	stored, _ = p.GroupMembers("council")
	require.True(t, stored.Equal(common.NewAccountSet(alice)))
	require.Len(t, p.Roles, 3, "other roles are kept")
}

func TestPolicyPermissions(t *testing.T) {
	p := testPolicy()

	roles := p.Permitted(alice, "ChangePolicy", "VoteApprove")
	require.Len(t, roles, 1)
	require.Equal(t, "council", roles[0].Name)
	require.Equal(t, uint64(1), p.VotePolicyFor(roles[0], "ChangePolicy").Threshold.Weight.Uint64())

	require.Empty(t, p.Permitted(bob, "ChangePolicy", "VoteApprove"))
	require.Len(t, p.Permitted(bob, "ChangePolicy", "AddProposal"), 1)
	require.Equal(t, Ratio(1, 2), p.VotePolicyFor(&p.Roles[1], "AddMemberToRole").Threshold)
}

func TestVotePolicyRequired(t *testing.T) {
	half := VotePolicy{Threshold: Ratio(1, 2)}
	require.Equal(t, 1, half.Required(1))
	require.Equal(t, 2, half.Required(2))
	require.Equal(t, 2, half.Required(3))
	require.Equal(t, 3, half.Required(4))
	require.Equal(t, 0, half.Required(0))

	abs := VotePolicy{Threshold: Weight(3)}
	require.Equal(t, 2, abs.Required(2))
	require.Equal(t, 3, abs.Required(10))

	quorum := VotePolicy{Threshold: Ratio(1, 2), Quorum: common.NewU128(5)}
	require.Equal(t, 5, quorum.Required(6))
}
