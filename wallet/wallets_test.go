package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerlite/ledgerlite/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestWalletsCreateSaveLoadRoundTrips(t *testing.T) {
	cfg := testConfig(t)

	ws, err := Load(cfg, "node1")
	require.NoError(t, err)
	require.Empty(t, ws.GetAllAddresses())

	address, err := ws.CreateWallet()
	require.NoError(t, err)
	require.NoError(t, ws.SaveAll())

	reloaded, err := Load(cfg, "node1")
	require.NoError(t, err)

	w, ok := reloaded.GetWallet(address)
	require.True(t, ok)
	require.Equal(t, address, w.GetAddress())
	require.Contains(t, reloaded.GetAllAddresses(), address)
}

func TestWalletsGetWalletMissing(t *testing.T) {
	cfg := testConfig(t)
	ws, err := Load(cfg, "node1")
	require.NoError(t, err)

	_, ok := ws.GetWallet("nonexistent-address")
	require.False(t, ok)
}
