package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/daosync"
	"go.uber.org/zap"
)

// Pipeline stages.
const (
	stageAll       = "all"
	stageOwners    = "owners"
	stageMembers   = "members"
	stageProposals = "proposals"
	stagePolicy    = "policy"
)

var errRoundsExceeded = errors.New("synchronization is not finished")

// relay drives the sync contract deployed to the local chain.
type relay struct {
	chain     *chain.Chain
	contract  util.Uint160
	owner     util.Uint160
	maxRounds int
	log       *zap.Logger
}

type setupPrm struct {
	nft, dao util.Uint160
	role     string
}

// setup initializes the sync contract or updates the role of the existing
// one.
func (r *relay) setup(prm setupPrm) error {
	if !r.chain.IsDeployed(r.contract) {
		r.chain.Deploy(r.contract, daosync.New())
	}

	var cfg daosync.Config
	res, err := r.chain.View(r.contract, "get_config", nil)
	if errors.Is(err, daosync.ErrNotInitialized) {
		_, err = r.call("new", map[string]any{
			"owner_id":        r.owner,
			"nft_contract_id": prm.nft,
			"dao_account_id":  prm.dao,
			"dao_owners_role": prm.role,
		})
		return err
	}
	if err != nil {
		return fmt.Errorf("get sync config: %w", err)
	}
	if err := json.Unmarshal(res, &cfg); err != nil {
		return fmt.Errorf("decode sync config: %w", err)
	}
	if !cfg.Owner.Equals(r.owner) {
		return fmt.Errorf("sync contract is owned by %s", cfg.Owner.StringLE())
	}
	if !cfg.NFT.Equals(prm.nft) || !cfg.DAO.Equals(prm.dao) {
		return fmt.Errorf("sync contract is bound to nft %s and dao %s", cfg.NFT.StringLE(), cfg.DAO.StringLE())
	}
	if cfg.Role != prm.role {
		r.log.Info("dao role changed", zap.String("old", cfg.Role), zap.String("new", prm.role))
		_, err = r.call("set_dao_role", map[string]string{"role": prm.role})
	}
	return err
}

// call invokes the sync contract method and checks that the whole call tree
// has succeeded.
func (r *relay) call(method string, args any) (*chain.Outcome, error) {
	var data []byte
	if args != nil {
		data = chain.EncodeArgs(args)
	}
	out, err := r.chain.Call(r.owner, async.Call{Receiver: r.contract, Method: method, Args: data})
	if err != nil {
		return out, fmt.Errorf("%s: %w", method, err)
	}
	if failed := out.Failed(); len(failed) != 0 {
		return out, fmt.Errorf("%s: %s failed: %w", method, failed[0].Method, failed[0].Err)
	}
	return out, nil
}

func (r *relay) syncOwners() error {
	for i := 0; i < r.maxRounds; i++ {
		out, err := r.call("sync_nft_owners", nil)
		if err != nil {
			return err
		}
		res := out.Find("handle_nft_owners_sync")
		if len(res) == 1 && string(res[0].Value) == "true" {
			return nil
		}
		r.log.Info("nft holders are partially synchronized, repeating")
	}
	return fmt.Errorf("%w: holders after %d rounds", errRoundsExceeded, r.maxRounds)
}

func (r *relay) syncMembers() error {
	out, err := r.call("sync_dao_members", nil)
	if err != nil {
		return err
	}
	if res := out.Find("handle_dao_policy"); len(res) == 1 {
		r.log.Info("membership changes staged", zap.ByteString("count", res[0].Value))
	}
	return nil
}

func (r *relay) addProposals() error {
	for i := 0; i < r.maxRounds; i++ {
		out, err := r.call("add_proposals", nil)
		if err != nil {
			return err
		}
		var res daosync.BatchResult
		if err := json.Unmarshal(out.Receipts[0].Value, &res); err != nil {
			return fmt.Errorf("decode batch result: %w", err)
		}
		r.log.Info("proposal batch filed",
			zap.Int("proposed", res.Proposed),
			zap.Int("discarded", res.Discarded),
			zap.Int("remaining", res.Remaining))
		if res.Remaining == 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: pending actions after %d rounds", errRoundsExceeded, r.maxRounds)
}

func (r *relay) proposePolicy() error {
	_, err := r.call("propose_policy_update", nil)
	return err
}

// run executes the stage, all runs owners, members and proposals in order.
func (r *relay) run(stage string) error {
	var steps []func() error
	switch stage {
	case stageAll:
		steps = []func() error{r.syncOwners, r.syncMembers, r.addProposals}
	case stageOwners:
		steps = []func() error{r.syncOwners}
	case stageMembers:
		steps = []func() error{r.syncMembers}
	case stageProposals:
		steps = []func() error{r.addProposals}
	case stagePolicy:
		steps = []func() error{r.syncOwners, r.proposePolicy}
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
