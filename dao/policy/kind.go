package policy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/nftdao-contract/common"
)

// RoleKind describes who belongs to the role. It is one of Everyone, Member
// or Group.
type RoleKind interface {
	isRoleKind()
}

// Everyone matches any account.
type Everyone struct{}

// Member matches accounts holding at least Balance of governance tokens.
type Member struct {
	Balance common.U128
}

// Group matches explicitly listed accounts.
type Group struct {
	Members common.AccountSet
}

func (Everyone) isRoleKind() {}
func (Member) isRoleKind()   {}
func (Group) isRoleKind()    {}

const kindEveryone = "Everyone"

func marshalKind(k RoleKind) ([]byte, error) {
	switch k := k.(type) {
	case Everyone:
		return json.Marshal(kindEveryone)
	case Member:
		return json.Marshal(map[string]common.U128{"Member": k.Balance})
	case Group:
		members := k.Members
		if members == nil {
			members = common.NewAccountSet()
		}
		return json.Marshal(map[string]common.AccountSet{"Group": members})
	case nil:
		return nil, errors.New("missing role kind")
	default:
		return nil, fmt.Errorf("unsupported role kind %T", k)
	}
}

func unmarshalKind(data []byte) (RoleKind, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != kindEveryone {
			return nil, fmt.Errorf("unknown role kind %q", s)
		}
		return Everyone{}, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid role kind: %w", err)
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("role kind must have exactly one variant, got %d", len(m))
	}
	for name, raw := range m {
		switch name {
		case "Member":
			var b common.U128
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("invalid Member role: %w", err)
			}
			return Member{Balance: b}, nil
		case "Group":
			var members common.AccountSet
			if err := json.Unmarshal(raw, &members); err != nil {
				return nil, fmt.Errorf("invalid Group role: %w", err)
			}
			return Group{Members: members}, nil
		default:
			return nil, fmt.Errorf("unknown role kind %q", name)
		}
	}
	panic("unreachable")
}
