package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/mcoot/bingohall/internal/dependencies/mocks"
	"github.com/mcoot/bingohall/internal/dependencies/random"
	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/services/caller"
	"github.com/mcoot/bingohall/internal/services/registry"
	"github.com/mcoot/bingohall/internal/services/wins"
	"github.com/mcoot/bingohall/internal/testutil"
	"pgregory.net/rapid"
)

func newPropertyController() (*Controller, *registry.Registry) {
	logger := testutil.NopLogger()
	reg := registry.New(logger)
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	c := NewController(reg, caller.New(random.New()), wins.New(wins.DefaultConfig()), clk, logger)
	return c, reg
}

// TestSessionInvariants drives the controller with arbitrary command
// sequences and checks the ledger, called numbers and marks after each step.
func TestSessionInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, reg := newPropertyController()
		ids := []model.PlayerID{"p1", "p2", "p3"}
		for _, id := range ids {
			reg.Connect(id, string(id), testutil.NewFakeConn(string(id)), time.Now())
		}
		playerGen := rapid.SampledFrom(ids)

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.IntRange(0, 7).Draw(t, fmt.Sprintf("op%d", i))
			switch op {
			case 0:
				if err := c.Start(); err == nil {
					s := c.Session()
					if len(s.CalledNumbers) != 0 || s.CurrentNumber != 0 {
						t.Fatalf("start left called numbers %v", s.CalledNumbers)
					}
					for _, p := range reg.Players() {
						if len(p.MarkedNumbers) != 0 {
							t.Fatalf("start left marks for %s: %v", p.ID, p.MarkedNumbers)
						}
					}
				}
			case 1:
				_, _ = c.TogglePause()
			case 2:
				_, _ = c.End()
			case 3:
				_, _ = c.CallNumber()
			case 4:
				stake := rapid.Int64Range(0, 500).Draw(t, "stake")
				_, _ = c.Register(playerGen.Draw(t, "register"), registry.Details{Stake: stake}, nil)
			case 5:
				n := rapid.IntRange(-2, 80).Draw(t, "mark")
				_, _ = c.MarkNumber(playerGen.Draw(t, "marker"), n)
			case 6:
				_, _ = c.ClaimWin(playerGen.Draw(t, "claimant"), model.BoardType75Ball)
			case 7:
				c.ClearNumbers()
			}

			checkInvariants(t, c, reg)
		}
	})
}

func checkInvariants(t *rapid.T, c *Controller, reg *registry.Registry) {
	s := c.Session()

	f := s.Finance
	if f.CurrentBalance != f.TotalIncome-f.TotalPayout {
		t.Fatalf("balance %d != income %d - payout %d", f.CurrentBalance, f.TotalIncome, f.TotalPayout)
	}

	seen := make(map[int]bool)
	for _, n := range s.CalledNumbers {
		if !model.ValidNumber(n) {
			t.Fatalf("called number %d out of range", n)
		}
		if seen[n] {
			t.Fatalf("number %d called twice: %v", n, s.CalledNumbers)
		}
		seen[n] = true
	}

	for _, p := range reg.Players() {
		for _, n := range p.MarkedNumbers {
			if !model.ValidNumber(n) {
				t.Fatalf("player %s marked %d", p.ID, n)
			}
		}
	}
}

// TestClaimOutsidePlayingNeverMutates checks that claims in any
// non-playing phase leave winners and finance untouched.
func TestClaimOutsidePlayingNeverMutates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, reg := newPropertyController()
		reg.Connect("p1", "Ann", testutil.NewFakeConn("c1"), time.Now())
		_, _ = c.Register("p1", registry.Details{Stake: 100}, nil)

		transitions := rapid.SliceOfN(rapid.IntRange(0, 2), 0, 6).Draw(t, "transitions")
		for _, tr := range transitions {
			switch tr {
			case 0:
				_ = c.Start()
			case 1:
				_, _ = c.TogglePause()
			case 2:
				_, _ = c.End()
			}
		}
		if c.Phase() == model.PhasePlaying {
			_, _ = c.TogglePause()
		}

		before := c.Session()
		_, err := c.ClaimWin("p1", model.BoardType90Ball)
		after := c.Session()

		if err == nil {
			t.Fatalf("claim in phase %s succeeded", before.Phase)
		}
		if len(after.Winners) != len(before.Winners) || after.Finance != before.Finance {
			t.Fatalf("claim in phase %s mutated state", before.Phase)
		}
	})
}
