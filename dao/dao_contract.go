package dao

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"go.uber.org/zap"
)

const (
	prefixPolicy   byte = 0x00
	prefixLastID   byte = 0x01
	prefixProposal byte = 0x10
	prefixVotes    byte = 0x20
)

// Actions of act_proposal.
const (
	ActionAddProposal = "AddProposal"
	ActionVoteApprove = "VoteApprove"
	ActionVoteReject  = "VoteReject"
	ActionVoteRemove  = "VoteRemove"
)

var (
	// ErrNotInitialized is returned when the contract is called before new.
	ErrNotInitialized = fmt.Errorf("%w: contract is not initialized", common.ErrPrecondition)
	// ErrAlreadyInitialized is returned on the repeated new call.
	ErrAlreadyInitialized = fmt.Errorf("%w: contract is already initialized", common.ErrPrecondition)
	// ErrProposalNotFound is returned for unknown proposal ids.
	ErrProposalNotFound = fmt.Errorf("%w: proposal not found", common.ErrPrecondition)
	// ErrNotInProgress is returned on votes for decided proposals.
	ErrNotInProgress = fmt.Errorf("%w: proposal is not in progress", common.ErrPrecondition)
	// ErrAlreadyVoted is returned on the repeated vote of the account.
	ErrAlreadyVoted = fmt.Errorf("%w: already voted", common.ErrPrecondition)
)

// Status is a proposal status.
type Status byte

// Proposal statuses.
const (
	InProgress Status = iota
	Approved
	Rejected
	Removed
	Expired
	Failed
)

var statusNames = []string{"InProgress", "Approved", "Rejected", "Removed", "Expired", "Failed"}

// String implements fmt.Stringer.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Unknown"
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i := range statusNames {
		if statusNames[i] == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown proposal status %q", name)
}

// Proposal is a proposal view returned by get_proposal.
type Proposal struct {
	ID               uint64         `json:"id"`
	Proposer         util.Uint160   `json:"proposer"`
	Description      string         `json:"description"`
	Kind             ProposalKind   `json:"-"`
	Status           Status         `json:"status"`
	VoteCounts       map[string]int `json:"vote_counts"`
	SubmissionHeight uint32         `json:"submission_height"`
	Hash             string         `json:"hash"`
}

// MarshalJSON implements json.Marshaler.
func (p Proposal) MarshalJSON() ([]byte, error) {
	type alias Proposal
	kind, err := json.Marshal(ProposalInput{Kind: p.Kind})
	if err != nil {
		return nil, err
	}
	var in proposalInputJSON
	if err := json.Unmarshal(kind, &in); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		Kind map[string]json.RawMessage `json:"kind"`
	}{alias(p), in.Kind})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	type alias Proposal
	var aux struct {
		alias
		Kind json.RawMessage `json:"kind"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var in ProposalInput
	if err := json.Unmarshal([]byte(`{"kind":`+string(aux.Kind)+`}`), &in); err != nil {
		return err
	}
	*p = Proposal(aux.alias)
	p.Kind = in.Kind
	return nil
}

type proposal struct {
	Proposer    util.Uint160
	Description string
	Kind        []byte
	Status      Status
	Height      uint32
	Bond        *big.Int
	Hash        string
}

// ToStackItem implements stackitem.Convertible.
func (p *proposal) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(p.Proposer.BytesBE()),
		stackitem.NewByteArray([]byte(p.Description)),
		stackitem.NewByteArray(p.Kind),
		stackitem.NewBigInteger(big.NewInt(int64(p.Status))),
		stackitem.NewBigInteger(big.NewInt(int64(p.Height))),
		stackitem.NewBigInteger(p.Bond),
		stackitem.NewByteArray([]byte(p.Hash)),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (p *proposal) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 7 {
		return errors.New("invalid proposal")
	}
	var bs [4][]byte
	for i, j := range []int{0, 1, 2, 6} {
		b, err := arr[j].TryBytes()
		if err != nil {
			return fmt.Errorf("field %d: %w", j, err)
		}
		bs[i] = b
	}
	var ints [3]*big.Int
	for i := range ints {
		v, err := arr[3+i].TryInteger()
		if err != nil {
			return fmt.Errorf("field %d: %w", 3+i, err)
		}
		ints[i] = v
	}
	proposer, err := util.Uint160DecodeBytesBE(bs[0])
	if err != nil {
		return fmt.Errorf("proposer: %w", err)
	}
	*p = proposal{
		Proposer:    proposer,
		Description: string(bs[1]),
		Kind:        bs[2],
		Status:      Status(ints[0].Int64()),
		Height:      uint32(ints[1].Int64()),
		Bond:        ints[2],
		Hash:        string(bs[3]),
	}
	return nil
}

func idBytes(id uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, id)
}

func getPolicy(st common.Storage) (*policy.Policy, error) {
	data, err := st.Get([]byte{prefixPolicy})
	if err != nil {
		return nil, ErrNotInitialized
	}
	return policy.Decode(data)
}

func putPolicy(st common.Storage, p *policy.Policy) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	st.Put([]byte{prefixPolicy}, data)
	return nil
}

func getProposal(st common.Storage, id uint64) (*proposal, error) {
	var p proposal
	ok, err := common.GetSerialized(st, common.Key(prefixProposal, idBytes(id)), &p)
	if err != nil {
		return nil, fmt.Errorf("proposal %d: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	return &p, nil
}

func putProposal(st common.Storage, id uint64, p *proposal) error {
	return common.SetSerialized(st, common.Key(prefixProposal, idBytes(id)), p)
}

// Contract is the governance contract.
type Contract struct {
	methods chain.Methods
}

// New returns governance contract code.
func New() *Contract {
	c := new(Contract)
	c.methods = chain.Methods{
		"new":                  c.init,
		"get_policy":           c.getPolicy,
		"add_proposal":         c.addProposal,
		"get_proposal":         c.getProposal,
		"get_last_proposal_id": c.getLastProposalID,
		"act_proposal":         c.actProposal,
	}
	return c
}

// Invoke implements chain.Contract.
func (c *Contract) Invoke(ic *chain.Context, method string, args []byte) ([]byte, error) {
	if method != "new" {
		if _, err := ic.Get([]byte{prefixPolicy}); err != nil {
			return nil, ErrNotInitialized
		}
	}
	return c.methods.Invoke(ic, method, args)
}

type initArgs struct {
	Policy json.RawMessage `json:"policy"`
}

func (c *Contract) init(ic *chain.Context, data []byte) (any, error) {
	var args initArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if _, err := ic.Get([]byte{prefixPolicy}); err == nil {
		return nil, ErrAlreadyInitialized
	}
	p, err := policy.Decode(args.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPrecondition, err)
	}
	return nil, putPolicy(ic, p)
}

func (c *Contract) getPolicy(ic *chain.Context, _ []byte) (any, error) {
	return getPolicy(ic)
}

func (c *Contract) getLastProposalID(ic *chain.Context, _ []byte) (any, error) {
	n, err := common.GetInt(ic, []byte{prefixLastID})
	if err != nil {
		return nil, err
	}
	return uint64(n), nil
}

func (c *Contract) addProposal(ic *chain.Context, data []byte) (any, error) {
	var args AddProposalArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	p, err := getPolicy(ic)
	if err != nil {
		return nil, err
	}
	if err := validateKind(p, args.Proposal.Kind); err != nil {
		return nil, err
	}

	proposer := ic.Predecessor()
	label := args.Proposal.Kind.Label()
	if len(p.Permitted(proposer, label, ActionAddProposal)) == 0 {
		return nil, fmt.Errorf("%w: %s can't propose %s", common.ErrUnauthorized, proposer.StringLE(), label)
	}
	bond := p.ProposalBond.Big()
	if ic.Deposit().Cmp(bond) < 0 {
		return nil, fmt.Errorf("%w: proposal bond %s is not attached", common.ErrPrecondition, bond)
	}

	last, err := common.GetInt(ic, []byte{prefixLastID})
	if err != nil {
		return nil, err
	}
	id := uint64(last)
	kind, err := json.Marshal(args.Proposal)
	if err != nil {
		return nil, fmt.Errorf("encode proposal: %w", err)
	}
	hash := base58.Encode(common.InvokeID([][]byte{idBytes(id), proposer.BytesBE(), kind}, []byte("proposal")))

	err = putProposal(ic, id, &proposal{
		Proposer:    proposer,
		Description: args.Proposal.Description,
		Kind:        kind,
		Status:      InProgress,
		Height:      ic.Height(),
		Bond:        ic.Deposit(),
		Hash:        hash,
	})
	if err != nil {
		return nil, err
	}
	common.PutInt(ic, []byte{prefixLastID}, last+1)

	ic.Logger().Info("proposal added",
		zap.Uint64("id", id),
		zap.String("kind", label),
		zap.String("hash", hash))
	return id, nil
}

func validateKind(p *policy.Policy, k ProposalKind) error {
	switch k := k.(type) {
	case AddMemberToRole:
		_, err := p.GroupMembers(k.Role)
		return err
	case RemoveMemberFromRole:
		_, err := p.GroupMembers(k.Role)
		return err
	case ChangePolicy:
		if len(k.Policy.Roles) == 0 {
			return fmt.Errorf("%w: policy has no roles", common.ErrPrecondition)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported proposal kind", common.ErrPrecondition)
	}
}

type proposalArgs struct {
	ID uint64 `json:"id"`
}

func (c *Contract) getProposal(ic *chain.Context, data []byte) (any, error) {
	var args proposalArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	p, err := getProposal(ic, args.ID)
	if err != nil {
		return nil, err
	}
	var in ProposalInput
	if err := json.Unmarshal(p.Kind, &in); err != nil {
		return nil, fmt.Errorf("decode proposal %d: %w", args.ID, err)
	}

	counts := make(map[string]int, 3)
	for _, action := range []string{ActionVoteApprove, ActionVoteReject, ActionVoteRemove} {
		voters, err := common.Voters(ic, common.Key(prefixVotes, idBytes(args.ID)), []byte(action))
		if err != nil {
			return nil, err
		}
		counts[action] = len(voters)
	}
	return Proposal{
		ID:               args.ID,
		Proposer:         p.Proposer,
		Description:      p.Description,
		Kind:             in.Kind,
		Status:           p.Status,
		VoteCounts:       counts,
		SubmissionHeight: p.Height,
		Hash:             p.Hash,
	}, nil
}
