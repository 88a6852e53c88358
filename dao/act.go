package dao

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"go.uber.org/zap"
)

type actArgs struct {
	ID     uint64 `json:"id"`
	Action string `json:"action"`
}

var decisions = map[string]Status{
	ActionVoteApprove: Approved,
	ActionVoteReject:  Rejected,
	ActionVoteRemove:  Removed,
}

// actProposal registers the vote and decides the proposal once a Group
// role of the voter reaches its threshold. It returns the proposal status.
func (c *Contract) actProposal(ic *chain.Context, data []byte) (any, error) {
	var args actArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	decision, ok := decisions[args.Action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", chain.ErrInvalidArguments, args.Action)
	}

	p, err := getPolicy(ic)
	if err != nil {
		return nil, err
	}
	prop, err := getProposal(ic, args.ID)
	if err != nil {
		return nil, err
	}
	if prop.Status != InProgress {
		return nil, fmt.Errorf("%w: %d is %s", ErrNotInProgress, args.ID, prop.Status)
	}

	log := ic.Logger().With(zap.Uint64("id", args.ID))
	if period := uint32(p.ProposalPeriod); period != 0 && ic.Height()-prop.Height > period {
		prop.Status = Expired
		log.Info("proposal expired")
		return prop.Status, putProposal(ic, args.ID, prop)
	}

	var in ProposalInput
	if err := json.Unmarshal(prop.Kind, &in); err != nil {
		return nil, fmt.Errorf("decode proposal %d: %w", args.ID, err)
	}
	label := in.Kind.Label()

	voter := ic.Predecessor()
	roles := p.Permitted(voter, label, args.Action)
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: %s can't %s on %s", common.ErrUnauthorized, voter.StringLE(), args.Action, label)
	}

	key := common.Key(prefixVotes, idBytes(args.ID))
	for action := range decisions {
		voters, err := common.Voters(ic, key, []byte(action))
		if err != nil {
			return nil, err
		}
		for i := range voters {
			if voters[i].Equals(voter) {
				return nil, fmt.Errorf("%w: %s", ErrAlreadyVoted, voter.StringLE())
			}
		}
	}
	if _, err := common.Vote(ic, key, []byte(args.Action), voter, ic.Height(), 0); err != nil {
		return nil, err
	}
	voters, err := common.Voters(ic, key, []byte(args.Action))
	if err != nil {
		return nil, err
	}

	if !decided(p, roles, label, voters) {
		return prop.Status, putProposal(ic, args.ID, prop)
	}

	prop.Status = decision
	switch decision {
	case Approved:
		if err := execute(p, in.Kind); err != nil {
			prop.Status = Failed
			log.Warn("proposal execution failed", zap.Error(err))
			break
		}
		ic.Transfer(prop.Proposer, prop.Bond)
		if err := putPolicy(ic, p); err != nil {
			return nil, err
		}
	case Rejected:
		ic.Transfer(prop.Proposer, prop.Bond)
	}

	log.Info("proposal decided", zap.Stringer("status", prop.Status))
	return prop.Status, putProposal(ic, args.ID, prop)
}

// decided checks whether voters reach the threshold of any Group role
// among roles. Only role members are counted.
func decided(p *policy.Policy, roles []*policy.RolePermission, label string, voters []util.Uint160) bool {
	for _, r := range roles {
		members, err := p.GroupMembers(r.Name)
		if err != nil {
			continue
		}
		var n int
		for i := range voters {
			if members.Has(voters[i]) {
				n++
			}
		}
		if n > 0 && n >= p.VotePolicyFor(r, label).Required(members.Len()) {
			return true
		}
	}
	return false
}

// execute applies approved proposal to the policy.
func execute(p *policy.Policy, k ProposalKind) error {
	switch k := k.(type) {
	case AddMemberToRole:
		return p.AddMember(k.Role, k.MemberID)
	case RemoveMemberFromRole:
		return p.RemoveMember(k.Role, k.MemberID)
	case ChangePolicy:
		if len(k.Policy.Roles) == 0 {
			return fmt.Errorf("%w: policy has no roles", common.ErrPrecondition)
		}
		*p = k.Policy
		return nil
	default:
		return fmt.Errorf("%w: unsupported proposal kind %T", common.ErrPrecondition, k)
	}
}
