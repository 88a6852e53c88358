package daosync

import (
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/chain/chaintest"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// withVersion stores config of the given version on "set_version" calls.
func withVersion(ctr *Contract) chain.ContractFunc {
	return func(ic *chain.Context, method string, args []byte) ([]byte, error) {
		if method != "set_version" {
			return ctr.Invoke(ic, method, args)
		}
		var v int64
		if err := chain.DecodeArgs(args, &v); err != nil {
			return nil, err
		}
		cfg, err := getConfig(ic)
		if err != nil {
			return nil, err
		}
		cfg.Version = v
		return nil, putConfig(ic, cfg)
	}
}

func TestMigrate(t *testing.T) {
	hash := util.Uint160{0x5c}
	c := chain.New(chain.Options{Logger: zaptest.NewLogger(t)})
	c.Deploy(hash, withVersion(New()))

	owner := chaintest.NewAccount(t, c, nil)
	inv := chaintest.NewInvoker(c, hash, owner)
	inv.Invoke(t, nil, "new", map[string]any{"owner_id": owner})

	inv.InvokeFail(t, common.ErrPrecondition, "migrate", nil)

	stranger := chaintest.NewAccount(t, c, nil)
	inv.WithSigner(stranger).InvokeFail(t, common.ErrUnauthorized, "migrate", nil)

	t.Run("outdated", func(t *testing.T) {
		inv.Invoke(t, nil, "set_version", common.PrevVersion-1)
		inv.InvokeFail(t, common.ErrPrecondition, "migrate", nil)
	})

	inv.Invoke(t, nil, "set_version", common.PrevVersion)
	inv.Invoke(t, nil, "migrate", nil)

	var cfg Config
	inv.View(t, &cfg, "get_config", nil)
	require.EqualValues(t, common.Version, cfg.Version)
	require.Equal(t, owner, cfg.Owner)
}
