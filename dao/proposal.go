package dao

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
)

// Proposal kind labels used in `<kind>:<action>` permissions and vote
// policies.
const (
	LabelAddMemberToRole      = "add_member_to_role"
	LabelRemoveMemberFromRole = "remove_member_from_role"
	LabelChangePolicy         = "policy"
)

// ProposalKind is an action the proposal executes once approved. It is one
// of AddMemberToRole, RemoveMemberFromRole or ChangePolicy.
type ProposalKind interface {
	// Label returns kind label used in permissions.
	Label() string
}

// AddMemberToRole adds the account to the Group role.
type AddMemberToRole struct {
	MemberID util.Uint160 `json:"member_id"`
	Role     string       `json:"role"`
}

// RemoveMemberFromRole removes the account from the Group role.
type RemoveMemberFromRole struct {
	MemberID util.Uint160 `json:"member_id"`
	Role     string       `json:"role"`
}

// ChangePolicy replaces the whole DAO policy.
type ChangePolicy struct {
	Policy policy.Policy `json:"policy"`
}

// Label implements ProposalKind.
func (AddMemberToRole) Label() string { return LabelAddMemberToRole }

// Label implements ProposalKind.
func (RemoveMemberFromRole) Label() string { return LabelRemoveMemberFromRole }

// Label implements ProposalKind.
func (ChangePolicy) Label() string { return LabelChangePolicy }

// ProposalInput is a proposal submitted to add_proposal.
type ProposalInput struct {
	Description string
	Kind        ProposalKind
}

type proposalInputJSON struct {
	Description string                     `json:"description"`
	Kind        map[string]json.RawMessage `json:"kind"`
}

// MarshalJSON implements json.Marshaler. Kind is encoded as an object with
// a single key naming the variant.
func (p ProposalInput) MarshalJSON() ([]byte, error) {
	var name string
	switch p.Kind.(type) {
	case AddMemberToRole:
		name = "AddMemberToRole"
	case RemoveMemberFromRole:
		name = "RemoveMemberFromRole"
	case ChangePolicy:
		name = "ChangePolicy"
	case nil:
		return nil, errors.New("missing proposal kind")
	default:
		return nil, fmt.Errorf("unsupported proposal kind %T", p.Kind)
	}
	raw, err := json.Marshal(p.Kind)
	if err != nil {
		return nil, err
	}
	return json.Marshal(proposalInputJSON{Description: p.Description, Kind: map[string]json.RawMessage{name: raw}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProposalInput) UnmarshalJSON(data []byte) error {
	var aux proposalInputJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Kind) != 1 {
		return fmt.Errorf("proposal kind must have exactly one variant, got %d", len(aux.Kind))
	}
	for name, raw := range aux.Kind {
		var (
			kind ProposalKind
			err  error
		)
		switch name {
		case "AddMemberToRole":
			var k AddMemberToRole
			err = json.Unmarshal(raw, &k)
			kind = k
		case "RemoveMemberFromRole":
			var k RemoveMemberFromRole
			err = json.Unmarshal(raw, &k)
			kind = k
		case "ChangePolicy":
			var k ChangePolicy
			err = json.Unmarshal(raw, &k)
			kind = k
		default:
			return fmt.Errorf("unsupported proposal kind %q", name)
		}
		if err != nil {
			return fmt.Errorf("invalid %s proposal: %w", name, err)
		}
		*p = ProposalInput{Description: aux.Description, Kind: kind}
	}
	return nil
}

// AddProposalArgs are arguments of add_proposal.
type AddProposalArgs struct {
	Proposal ProposalInput `json:"proposal"`
}
