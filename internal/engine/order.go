package engine

import (
	"fmt"
	"strings"
	"time"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type Order struct {
	ID         string
	Instrument string
	Side       Side
	Price      int64  // integer price (ticks)
	Quantity   int64  // original quantity
	Remaining  int64  // unfilled
	Sequence   uint64 // arrival index, assigned at intake; used only for tie-breaking
	CreatedAt  time.Time
}
