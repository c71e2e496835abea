package gateway

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a player fixture:
//
//	players:
//	  - id: A
//	    name: Ann
//	    balance: 300
type seedFile struct {
	Players []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Balance string `yaml:"balance"`
	} `yaml:"players"`
}

// ParseSeed reads a player fixture.
func ParseSeed(r io.Reader) ([]PlayerInput, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	out := make([]PlayerInput, 0, len(file.Players))
	for i, p := range file.Players {
		balance := decimal.Zero
		if p.Balance != "" {
			var err error
			balance, err = decimal.NewFromString(p.Balance)
			if err != nil {
				return nil, fmt.Errorf("%w: player %d balance %q", ErrInvalid, i, p.Balance)
			}
		}
		in := PlayerInput{ID: p.ID, Name: p.Name, InitialBalance: balance}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		out = append(out, in)
	}
	return out, nil
}

// Seed registers every player of a fixture. Players that already exist are
// reported as already processed and keep their balance.
func (g *Gateway) Seed(ctx context.Context, players []PlayerInput) ([]Result, error) {
	results := make([]Result, 0, len(players))
	for _, p := range players {
		res, err := g.RegisterPlayer(ctx, p)
		if err != nil {
			return results, fmt.Errorf("failed to seed player %s: %w", p.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}
