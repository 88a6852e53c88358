package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var (
	nftHash = util.Uint160{0x4e, 0x46, 0x54}
	daoHash = util.Uint160{0xda}
)

func validYAML() string {
	return `
rpc:
  endpoint: http://localhost:30333
wallet:
  path: wallet.json
contracts:
  nft: ` + address.Uint160ToString(nftHash) + `
  dao: 0x` + daoHash.StringLE() + `
sync:
  role: council
`
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(validYAML()))
	require.NoError(t, err)

	require.Equal(t, nftHash, c.NFT())
	require.Equal(t, daoHash, c.DAO())
	require.Equal(t, "council", c.Sync.Role)

	t.Run("defaults", func(t *testing.T) {
		require.Equal(t, DefaultTimeout, c.RPC.DialTimeout)
		require.Equal(t, DefaultTimeout, c.RPC.RequestTimeout)
		require.Equal(t, DefaultMaxHolders, c.Sync.MaxHolders)
		require.Equal(t, DefaultMaxRounds, c.Sync.MaxRounds)
		require.Equal(t, dbconfig.InMemoryDB, c.DBConfig().Type)

		lvl, err := c.LogLevel()
		require.NoError(t, err)
		require.Equal(t, zapcore.InfoLevel, lvl)
	})

	t.Run("overrides", func(t *testing.T) {
		data := strings.Replace(validYAML(), "  endpoint: http://localhost:30333\n",
			"  endpoint: http://localhost:30333\n  dial_timeout: 5s\n", 1)
		c, err := Parse([]byte(data + `  max_holders: 10
logger:
  level: debug
storage:
  type: boltdb
  path: sync.db
`))
		require.NoError(t, err)
		require.Equal(t, 10, c.Sync.MaxHolders)
		require.Equal(t, 5*time.Second, c.RPC.DialTimeout)
		require.Equal(t, DefaultTimeout, c.RPC.RequestTimeout)
		require.Equal(t, dbconfig.BoltDB, c.DBConfig().Type)
		require.Equal(t, "sync.db", c.DBConfig().BoltDBOptions.FilePath)

		lvl, err := c.LogLevel()
		require.NoError(t, err)
		require.Equal(t, zapcore.DebugLevel, lvl)
	})

	t.Run("invalid", func(t *testing.T) {
		replace := func(old, new string) string {
			return strings.Replace(validYAML(), old, new, 1)
		}
		for name, data := range map[string]string{
			"syntax":        "rpc: [",
			"empty":         "",
			"role":          replace("role: council", `role: ""`),
			"limits":        validYAML() + "  max_rounds: -1\n",
			"level":         validYAML() + "logger:\n  level: loud\n",
			"storage type":  validYAML() + "storage:\n  type: sqlite\n",
			"storage path":  validYAML() + "storage:\n  type: leveldb\n",
			"wallet":        replace("path: wallet.json", "path: wallet.json\n  address: nope"),
			"contract hash": replace("dao: 0x", "dao: 0x01"),
		} {
			t.Run(name, func(t *testing.T) {
				_, err := Parse([]byte(data))
				require.Error(t, err)
			})
		}
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML()), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "wallet.json", c.Wallet.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestParseAccount(t *testing.T) {
	acc := util.Uint160{1, 2, 3}
	for _, s := range []string{address.Uint160ToString(acc), acc.StringLE(), "0x" + acc.StringLE()} {
		actual, err := ParseAccount(s)
		require.NoError(t, err, s)
		require.Equal(t, acc, actual, s)
	}

	for _, s := range []string{"", "0x", "NotAnAddress", acc.StringBE() + "00"} {
		_, err := ParseAccount(s)
		require.Error(t, err, s)
	}
}
