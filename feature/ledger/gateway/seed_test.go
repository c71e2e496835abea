package gateway

import (
	"context"
	"strings"
	"testing"

	"party-ledger/feature/ledger/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
players:
  - id: C
    name: Cy
    balance: 120.50
  - id: A
    name: Ann
    balance: 999
  - id: D
    name: Dee
`

func TestParseSeed(t *testing.T) {
	players, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "C", players[0].ID)
	assert.Equal(t, "120.5", players[0].InitialBalance.String())
	assert.True(t, players[2].InitialBalance.IsZero())

	empty, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseSeed_Invalid(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("players:\n  - id: A\n    name: Ann\n    balance: lots\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ParseSeed(strings.NewReader("players:\n  - name: Nobody\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ParseSeed(strings.NewReader("players: [\n"))
	assert.Error(t, err)
}

func TestGateway_Seed(t *testing.T) {
	remote := storetest.NewRemote()
	gw, _ := newTestGateway(t, remote, nil)
	ctx := context.Background()

	players, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	results, err := gw.Seed(ctx, players)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.False(t, results[0].AlreadyProcessed)
	assert.True(t, results[1].AlreadyProcessed)
	assert.False(t, results[2].AlreadyProcessed)

	remotePlayers, err := remote.ListPlayers(ctx)
	require.NoError(t, err)
	got := balances(t, remotePlayers)
	assert.Equal(t, "300", got["A"])
	assert.Equal(t, "120.5", got["C"])
	assert.Equal(t, "0", got["D"])
}
