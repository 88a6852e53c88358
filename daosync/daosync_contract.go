package daosync

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"go.uber.org/zap"
)

const (
	prefixConfig  byte = 0x00
	prefixHolder  byte = 0x10
	prefixPending byte = 0x20
)

var (
	// ErrNotInitialized is returned when the contract is called before new.
	ErrNotInitialized = fmt.Errorf("%w: contract is not initialized", common.ErrPrecondition)
	// ErrAlreadyInitialized is returned on the repeated new call.
	ErrAlreadyInitialized = fmt.Errorf("%w: contract is already initialized", common.ErrPrecondition)
	// ErrRoleNotSet is returned when DAO role is required but not configured.
	ErrRoleNotSet = fmt.Errorf("%w: dao role is not set", common.ErrPrecondition)
)

// Config is a contract configuration.
type Config struct {
	Owner   util.Uint160 `json:"owner_id"`
	NFT     util.Uint160 `json:"nft_contract_id"`
	DAO     util.Uint160 `json:"dao_account_id"`
	Role    string       `json:"dao_owners_role"`
	Version int64        `json:"version"`
}

// ToStackItem implements stackitem.Convertible.
func (c *Config) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(c.Owner.BytesBE()),
		stackitem.NewByteArray(c.NFT.BytesBE()),
		stackitem.NewByteArray(c.DAO.BytesBE()),
		stackitem.NewByteArray([]byte(c.Role)),
		stackitem.NewBigInteger(big.NewInt(c.Version)),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (c *Config) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 5 {
		return errors.New("invalid config")
	}
	accs := []*util.Uint160{&c.Owner, &c.NFT, &c.DAO}
	for i := range accs {
		b, err := arr[i].TryBytes()
		if err != nil {
			return fmt.Errorf("account %d: %w", i, err)
		}
		if *accs[i], err = util.Uint160DecodeBytesBE(b); err != nil {
			return fmt.Errorf("account %d: %w", i, err)
		}
	}
	role, err := arr[3].TryBytes()
	if err != nil {
		return fmt.Errorf("role: %w", err)
	}
	v, err := arr[4].TryInteger()
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	c.Role, c.Version = string(role), v.Int64()
	return nil
}

func getConfig(st common.Storage) (*Config, error) {
	var c Config
	ok, err := common.GetSerialized(st, []byte{prefixConfig}, &c)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return &c, nil
}

func putConfig(st common.Storage, c *Config) error {
	return common.SetSerialized(st, []byte{prefixConfig}, c)
}

// Contract is the DAO membership sync contract.
type Contract struct {
	methods chain.Methods
}

// New returns sync contract code.
func New() *Contract {
	c := new(Contract)
	c.methods = chain.Methods{
		"new":              c.init,
		"set_dao_role":     c.setDAORole,
		"remove_nft_owner": c.removeNFTOwner,
		"migrate":          c.migrate,

		"sync_nft_owners":        c.syncNFTOwners,
		"handle_nft_owners_sync": c.handleNFTOwnersSync,
		"sync_dao_members":       c.syncDAOMembers,
		"handle_dao_policy":      c.handleDAOPolicy,
		"add_proposals":          c.addProposals,
		"propose_policy_update":  c.proposePolicyUpdate,
		"handle_policy_update":   c.handlePolicyUpdate,

		"get_nft_owners":      c.getNFTOwners,
		"get_pending_actions": c.getPendingActions,
		"get_pending_count":   c.getPendingCount,
		"get_dao_role":        c.getDAORole,
		"get_config":          c.getConfig,
		"version":             c.version,
	}
	return c
}

// Invoke implements chain.Contract.
func (c *Contract) Invoke(ic *chain.Context, method string, args []byte) ([]byte, error) {
	if method != "new" {
		if _, err := getConfig(ic); err != nil {
			return nil, err
		}
	}
	return c.methods.Invoke(ic, method, args)
}

type initArgs struct {
	OwnerID util.Uint160 `json:"owner_id"`
	NFT     util.Uint160 `json:"nft_contract_id"`
	DAO     util.Uint160 `json:"dao_account_id"`
	Role    string       `json:"dao_owners_role,omitempty"`
}

func (c *Contract) init(ic *chain.Context, data []byte) (any, error) {
	var args initArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if _, err := getConfig(ic); err == nil {
		return nil, ErrAlreadyInitialized
	}
	err := putConfig(ic, &Config{
		Owner:   args.OwnerID,
		NFT:     args.NFT,
		DAO:     args.DAO,
		Role:    args.Role,
		Version: common.Version,
	})
	if err != nil {
		return nil, err
	}
	ic.Logger().Info("sync contract initialized",
		zap.String("owner", args.OwnerID.StringLE()),
		zap.String("nft", args.NFT.StringLE()),
		zap.String("dao", args.DAO.StringLE()))
	return nil, nil
}

// ownerConfig returns config if the call is made by the contract owner.
func ownerConfig(ic *chain.Context) (*Config, error) {
	cfg, err := getConfig(ic)
	if err != nil {
		return nil, err
	}
	if err := common.CheckOwnerWitness(ic, cfg.Owner); err != nil {
		return nil, err
	}
	return cfg, nil
}

type setDAORoleArgs struct {
	Role string `json:"role"`
}

func (c *Contract) setDAORole(ic *chain.Context, data []byte) (any, error) {
	var args setDAORoleArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	cfg, err := ownerConfig(ic)
	if err != nil {
		return nil, err
	}
	cfg.Role = args.Role
	return nil, putConfig(ic, cfg)
}

type accountArgs struct {
	AccountID util.Uint160 `json:"account_id"`
}

// removeNFTOwner returns true if the account has been removed.
func (c *Contract) removeNFTOwner(ic *chain.Context, data []byte) (any, error) {
	var args accountArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if _, err := ownerConfig(ic); err != nil {
		return nil, err
	}
	key := common.Key(prefixHolder, args.AccountID.BytesBE())
	ok, err := common.Has(ic, key)
	if err != nil || !ok {
		return false, err
	}
	ic.Delete(key)
	return true, nil
}

func (c *Contract) migrate(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := ownerConfig(ic)
	if err != nil {
		return nil, err
	}
	if err := common.CheckVersion(cfg.Version); err != nil {
		return nil, err
	}
	ic.Logger().Info("sync contract data migrated",
		zap.Int64("from", cfg.Version),
		zap.Int64("to", common.Version))
	cfg.Version = common.Version
	return nil, putConfig(ic, cfg)
}

func (c *Contract) getNFTOwners(ic *chain.Context, _ []byte) (any, error) {
	holders, err := getHolders(ic)
	if err != nil {
		return nil, err
	}
	return holders, nil
}

// PendingAction is a staged membership change.
type PendingAction struct {
	AccountID util.Uint160 `json:"account_id"`
	Action    Action       `json:"action"`
}

func (c *Contract) getPendingActions(ic *chain.Context, _ []byte) (any, error) {
	res := []PendingAction{}
	err := seekPending(ic, 0, func(acc util.Uint160, a Action) {
		res = append(res, PendingAction{AccountID: acc, Action: a})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Contract) getPendingCount(ic *chain.Context, _ []byte) (any, error) {
	return pendingCount(ic), nil
}

func (c *Contract) getDAORole(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := getConfig(ic)
	if err != nil {
		return nil, err
	}
	return cfg.Role, nil
}

func (c *Contract) getConfig(ic *chain.Context, _ []byte) (any, error) {
	return getConfig(ic)
}

func (c *Contract) version(*chain.Context, []byte) (any, error) {
	return common.Version, nil
}
