package tickmath

import (
	"errors"
	"math/big"
	"testing"
)

func TestSqrtRatioAtTickBounds(t *testing.T) {
	got, err := SqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(MinSqrtRatio) != 0 {
		t.Fatalf("min ratio mismatch: %v != %v", got, MinSqrtRatio)
	}

	got, err = SqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(MaxSqrtRatio) != 0 {
		t.Fatalf("max ratio mismatch: %v != %v", got, MaxSqrtRatio)
	}
}

func TestSqrtRatioAtTickZero(t *testing.T) {
	got, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(Q96) != 0 {
		t.Fatalf("tick 0 should be Q96, got %v", got)
	}
}

func TestSqrtRatioAtTickOutOfRange(t *testing.T) {
	if _, err := SqrtRatioAtTick(MaxTick + 1); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := SqrtRatioAtTick(MinTick - 1); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestTickAtSqrtRatioBounds(t *testing.T) {
	tick, err := TickAtSqrtRatio(MinSqrtRatio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != MinTick {
		t.Fatalf("tick mismatch: %d != %d", tick, MinTick)
	}

	maxMinusOne := new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))
	tick, err = TickAtSqrtRatio(maxMinusOne)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != MaxTick-1 {
		t.Fatalf("tick mismatch: %d != %d", tick, MaxTick-1)
	}

	if _, err := TickAtSqrtRatio(MaxSqrtRatio); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange at MaxSqrtRatio")
	}
	if _, err := TickAtSqrtRatio(new(big.Int).Sub(MinSqrtRatio, big.NewInt(1))); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange below MinSqrtRatio")
	}
}

func TestTickSqrtRatioRoundTrip(t *testing.T) {
	ticks := []int{MinTick, -887270, -500000, -100000, -10000, -60, -1, 0, 1, 60, 10000, 100000, 500000, 887270, MaxTick}
	for _, tick := range ticks {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		// TickAtSqrtRatio is defined on [MinSqrtRatio, MaxSqrtRatio)
		if ratio.Cmp(MaxSqrtRatio) >= 0 {
			continue
		}
		back, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if back != tick {
			t.Fatalf("round trip mismatch for tick %d: got %d", tick, back)
		}
	}
}

func TestNearestUsableTick(t *testing.T) {
	cases := []struct {
		tick, spacing, want int
	}{
		{0, 60, 0},
		{29, 60, 0},
		{31, 60, 60},
		{-29, 60, 0},
		{-31, 60, -60},
		{MinTick, 60, -887220},
		{MaxTick, 60, 887220},
	}
	for _, tc := range cases {
		if got := NearestUsableTick(tc.tick, tc.spacing); got != tc.want {
			t.Fatalf("NearestUsableTick(%d, %d) = %d, want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestEncodeSqrtRatioX96(t *testing.T) {
	got := EncodeSqrtRatioX96(big.NewInt(1), big.NewInt(1))
	if got.Cmp(Q96) != 0 {
		t.Fatalf("1/1 should encode to Q96, got %v", got)
	}

	got = EncodeSqrtRatioX96(big.NewInt(100), big.NewInt(1))
	want := new(big.Int).Mul(big.NewInt(10), Q96)
	if got.Cmp(want) != 0 {
		t.Fatalf("100/1 should encode to 10*Q96, got %v", got)
	}
}
