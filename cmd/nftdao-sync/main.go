package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/internal/config"
	"github.com/nspcc-dev/nftdao-contract/rpc/governance"
	"github.com/nspcc-dev/nftdao-contract/rpc/holders"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	stage := flag.String("stage", stageAll, "Pipeline stage: all, owners, members, proposals or policy")

	flag.Parse()

	if *configPath == "" {
		log.Fatal("missing config path")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	err = _sync(cfg, *stage)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("stage '%s' is successfully completed\n", *stage)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lvl, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func openAccount(cfg *config.Config) (*wallet.Account, error) {
	w, err := wallet.NewWalletFromFile(cfg.Wallet.Path)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	defer w.Close()

	var acc *wallet.Account
	if cfg.Wallet.Address != "" {
		h, err := address.StringToUint160(cfg.Wallet.Address)
		if err != nil {
			return nil, fmt.Errorf("wallet address: %w", err)
		}
		acc = w.GetAccount(h)
	} else if len(w.Accounts) != 0 {
		acc = w.Accounts[0]
	}
	if acc == nil {
		return nil, fmt.Errorf("account is missing in wallet %s", cfg.Wallet.Path)
	}
	if err := acc.Decrypt(cfg.Wallet.Password, w.Scrypt); err != nil {
		return nil, fmt.Errorf("unlock account %s: %w", acc.Address, err)
	}
	return acc, nil
}

// syncAccount returns account of the local sync contract owned by owner.
func syncAccount(owner util.Uint160) util.Uint160 {
	return hash.Hash160(append(owner.BytesBE(), "nftdao-sync"...))
}

func _sync(cfg *config.Config, stage string) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	acc, err := openAccount(cfg)
	if err != nil {
		return err
	}

	c, err := rpcclient.New(context.Background(), cfg.RPC.Endpoint, rpcclient.Options{
		DialTimeout:    cfg.RPC.DialTimeout,
		RequestTimeout: cfg.RPC.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("RPC client dial: %w", err)
	}
	defer c.Close()

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		return fmt.Errorf("init actor: %w", err)
	}

	store, err := storage.NewStore(cfg.DBConfig())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	ch := chain.New(chain.Options{Logger: logger, Store: store})
	defer func() {
		if err := ch.Close(); err != nil {
			logger.Error("can't close local chain", zap.Error(err))
		}
	}()

	ch.Deploy(cfg.NFT(), holders.New(act, cfg.NFT(), cfg.Sync.MaxHolders, logger))
	ch.Deploy(cfg.DAO(), governance.New(act, cfg.DAO(), logger))

	owner := acc.ScriptHash()
	r := &relay{
		chain:     ch,
		contract:  syncAccount(owner),
		owner:     owner,
		maxRounds: cfg.Sync.MaxRounds,
		log:       logger,
	}
	err = r.setup(setupPrm{nft: cfg.NFT(), dao: cfg.DAO(), role: cfg.Sync.Role})
	if err != nil {
		return fmt.Errorf("setup sync contract: %w", err)
	}

	return r.run(stage)
}
