/*
Package policy describes governance policy of the DAO: roles, their
permissions and vote policies.

Policy is exchanged between contracts as JSON:

	{
	  "roles": [{
	    "name": "council",
	    "kind": {"Group": ["0x..."]},
	    "permissions": ["*:AddProposal", "AddMemberToRole:*"],
	    "vote_policy": {}
	  }],
	  "default_vote_policy": {"weight_kind": "RoleWeight", "quorum": "0", "threshold": [1, 2]},
	  "proposal_bond": "0",
	  "proposal_period": "1000",
	  "bounty_bond": "0",
	  "bounty_forgiveness_period": "0"
	}
*/
package policy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/common"
)

var (
	// ErrRoleNotFound is returned when the policy has no role with the
	// requested name.
	ErrRoleNotFound = fmt.Errorf("%w: role not found", common.ErrPrecondition)
	// ErrWrongRoleKind is returned when the role kind is not a Group.
	ErrWrongRoleKind = fmt.Errorf("%w: role kind is not a group", common.ErrPrecondition)
)

// Policy is a governance policy of the DAO.
type Policy struct {
	Roles                   []RolePermission `json:"roles"`
	DefaultVotePolicy       VotePolicy       `json:"default_vote_policy"`
	ProposalBond            common.U128      `json:"proposal_bond"`
	ProposalPeriod          common.U64       `json:"proposal_period"`
	BountyBond              common.U128      `json:"bounty_bond"`
	BountyForgivenessPeriod common.U64       `json:"bounty_forgiveness_period"`
}

// RolePermission is a role with the list of allowed `<kind>:<action>`
// pairs, `*` matches anything.
type RolePermission struct {
	Name        string
	Kind        RoleKind
	Permissions []string
	// VotePolicy overrides the default one per proposal kind.
	VotePolicy map[string]VotePolicy
}

type rolePermissionJSON struct {
	Name        string                `json:"name"`
	Kind        json.RawMessage       `json:"kind"`
	Permissions []string              `json:"permissions"`
	VotePolicy  map[string]VotePolicy `json:"vote_policy"`
}

// MarshalJSON implements json.Marshaler.
func (r RolePermission) MarshalJSON() ([]byte, error) {
	kind, err := marshalKind(r.Kind)
	if err != nil {
		return nil, fmt.Errorf("role %q: %w", r.Name, err)
	}
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	vp := r.VotePolicy
	if vp == nil {
		vp = map[string]VotePolicy{}
	}
	return json.Marshal(rolePermissionJSON{Name: r.Name, Kind: kind, Permissions: perms, VotePolicy: vp})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RolePermission) UnmarshalJSON(data []byte) error {
	var aux rolePermissionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	kind, err := unmarshalKind(aux.Kind)
	if err != nil {
		return fmt.Errorf("role %q: %w", aux.Name, err)
	}
	*r = RolePermission{Name: aux.Name, Kind: kind, Permissions: aux.Permissions, VotePolicy: aux.VotePolicy}
	return nil
}

// Role returns the role by name.
func (p *Policy) Role(name string) (*RolePermission, error) {
	for i := range p.Roles {
		if p.Roles[i].Name == name {
			return &p.Roles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
}

// GroupMembers returns members of the Group role.
func (p *Policy) GroupMembers(name string) (common.AccountSet, error) {
	g, err := p.group(name)
	if err != nil {
		return nil, err
	}
	return g.Members.Clone(), nil
}

// UpdateGroupMembers replaces members of the Group role, other roles are
// kept as is.
func (p *Policy) UpdateGroupMembers(name string, members common.AccountSet) error {
	r, err := p.Role(name)
	if err != nil {
		return err
	}
	if _, ok := r.Kind.(Group); !ok {
		return fmt.Errorf("%w: %s", ErrWrongRoleKind, name)
	}
	r.Kind = Group{Members: members.Clone()}
	return nil
}

// AddMember puts acc into the Group role.
func (p *Policy) AddMember(name string, acc util.Uint160) error {
	g, err := p.group(name)
	if err != nil {
		return err
	}
	g.Members.Add(acc)
	return nil
}

// RemoveMember deletes acc from the Group role.
func (p *Policy) RemoveMember(name string, acc util.Uint160) error {
	g, err := p.group(name)
	if err != nil {
		return err
	}
	g.Members.Remove(acc)
	return nil
}

func (p *Policy) group(name string) (Group, error) {
	r, err := p.Role(name)
	if err != nil {
		return Group{}, err
	}
	g, ok := r.Kind.(Group)
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrWrongRoleKind, name)
	}
	if g.Members == nil {
		g.Members = common.NewAccountSet()
		r.Kind = g
	}
	return g, nil
}

// Matches checks whether acc belongs to the role. Member roles never match
// since token balances are not tracked.
func (r *RolePermission) Matches(acc util.Uint160) bool {
	switch k := r.Kind.(type) {
	case Everyone:
		return true
	case Group:
		return k.Members.Has(acc)
	default:
		return false
	}
}

// Allows checks whether the role permits the action on the proposal kind.
func (r *RolePermission) Allows(kind, action string) bool {
	for _, p := range r.Permissions {
		switch p {
		case kind + ":" + action, "*:" + action, kind + ":*", "*:*":
			return true
		}
	}
	return false
}

// Permitted returns roles of acc which allow the action on the proposal
// kind.
func (p *Policy) Permitted(acc util.Uint160, kind, action string) []*RolePermission {
	var res []*RolePermission
	for i := range p.Roles {
		if p.Roles[i].Matches(acc) && p.Roles[i].Allows(kind, action) {
			res = append(res, &p.Roles[i])
		}
	}
	return res
}

// VotePolicyFor returns vote policy of the role for the proposal kind.
func (p *Policy) VotePolicyFor(r *RolePermission, kind string) VotePolicy {
	if vp, ok := r.VotePolicy[kind]; ok {
		return vp
	}
	return p.DefaultVotePolicy
}

// Decode parses policy JSON.
func Decode(data []byte) (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if len(p.Roles) == 0 {
		return nil, errors.New("decode policy: no roles")
	}
	return &p, nil
}
