// Package config contains configuration of the nftdao-sync relay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxHolders  = 1000
	DefaultMaxRounds   = 100
	DefaultStorageType = dbconfig.InMemoryDB
	DefaultLogLevel    = "info"
)

// Config is a relay configuration.
type Config struct {
	Logger struct {
		Level string `yaml:"level"`
	} `yaml:"logger"`

	RPC struct {
		Endpoint       string        `yaml:"endpoint"`
		DialTimeout    time.Duration `yaml:"dial_timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"rpc"`

	Wallet struct {
		Path     string `yaml:"path"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
	} `yaml:"wallet"`

	Contracts struct {
		// NEP-11 membership token.
		NFT string `yaml:"nft"`
		// Governance contract.
		DAO string `yaml:"dao"`
	} `yaml:"contracts"`

	Sync struct {
		Role       string `yaml:"role"`
		MaxHolders int    `yaml:"max_holders"`
		// Maximum number of add_proposals calls per run.
		MaxRounds int `yaml:"max_rounds"`
	} `yaml:"sync"`

	Storage struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

// Load reads configuration file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates the
// result.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = DefaultLogLevel
	}
	if c.RPC.DialTimeout == 0 {
		c.RPC.DialTimeout = DefaultTimeout
	}
	if c.RPC.RequestTimeout == 0 {
		c.RPC.RequestTimeout = DefaultTimeout
	}
	if c.Sync.MaxHolders == 0 {
		c.Sync.MaxHolders = DefaultMaxHolders
	}
	if c.Sync.MaxRounds == 0 {
		c.Sync.MaxRounds = DefaultMaxRounds
	}
	if c.Storage.Type == "" {
		c.Storage.Type = DefaultStorageType
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.RPC.Endpoint == "" {
		errs = append(errs, errors.New("missing rpc.endpoint"))
	}
	if c.Wallet.Path == "" {
		errs = append(errs, errors.New("missing wallet.path"))
	}
	if c.Wallet.Address != "" {
		if _, err := address.StringToUint160(c.Wallet.Address); err != nil {
			errs = append(errs, fmt.Errorf("invalid wallet.address: %w", err))
		}
	}
	for name, s := range map[string]string{"contracts.nft": c.Contracts.NFT, "contracts.dao": c.Contracts.DAO} {
		if _, err := ParseAccount(s); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	}
	if c.Sync.Role == "" {
		errs = append(errs, errors.New("missing sync.role"))
	}
	if c.Sync.MaxHolders < 0 || c.Sync.MaxRounds < 0 {
		errs = append(errs, errors.New("negative sync limits"))
	}
	switch c.Storage.Type {
	case dbconfig.InMemoryDB:
	case dbconfig.BoltDB, dbconfig.LevelDB:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("missing storage.path for %s", c.Storage.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage.type %q", c.Storage.Type))
	}
	return errors.Join(errs...)
}

// LogLevel returns configured logger level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Logger.Level)
	if err != nil {
		return lvl, fmt.Errorf("invalid logger.level: %w", err)
	}
	return lvl, nil
}

// DBConfig returns storage configuration in neo-go format.
func (c *Config) DBConfig() dbconfig.DBConfiguration {
	res := dbconfig.DBConfiguration{Type: c.Storage.Type}
	switch c.Storage.Type {
	case dbconfig.BoltDB:
		res.BoltDBOptions.FilePath = c.Storage.Path
	case dbconfig.LevelDB:
		res.LevelDBOptions.DataDirectoryPath = c.Storage.Path
	}
	return res
}

// NFT returns account of the membership token contract.
func (c *Config) NFT() util.Uint160 {
	acc, _ := ParseAccount(c.Contracts.NFT)
	return acc
}

// DAO returns account of the governance contract.
func (c *Config) DAO() util.Uint160 {
	acc, _ := ParseAccount(c.Contracts.DAO)
	return acc
}

// ParseAccount parses account given either as Neo address or as LE hex
// string with optional 0x prefix.
func ParseAccount(s string) (util.Uint160, error) {
	if s == "" {
		return util.Uint160{}, errors.New("empty account")
	}
	if acc, err := address.StringToUint160(s); err == nil {
		return acc, nil
	}
	acc, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("neither address nor hash: %q", s)
	}
	return acc, nil
}
