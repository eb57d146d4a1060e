package entity

import (
	"errors"
	"testing"
)

func TestNewRouteSingleHop(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	route, err := NewRoute([]*Pool{pool}, testDAI, testUSDC)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	path := route.CurrencyPath()
	if len(path) != 2 || !path[0].Equal(testDAI) || !path[1].Equal(testUSDC) {
		t.Fatalf("currency path = %v", path)
	}
	if len(route.PoolKeys()) != 1 {
		t.Fatalf("pool keys = %d, want 1", len(route.PoolKeys()))
	}
}

func TestNewRouteMultiHop(t *testing.T) {
	daiUSDC := fullRangePool(t, testDAI, testUSDC)
	usdcWETH := fullRangePool(t, testUSDC, testWETH)
	route, err := NewRoute([]*Pool{daiUSDC, usdcWETH}, testDAI, testWETH)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	path := route.CurrencyPath()
	if len(path) != 3 || !path[1].Equal(testUSDC) {
		t.Fatalf("currency path = %v", path)
	}
}

func TestNewRouteRejectsBrokenChains(t *testing.T) {
	daiUSDC := fullRangePool(t, testDAI, testUSDC)
	ethWETH := fullRangePool(t, testETH, testWETH)

	if _, err := NewRoute(nil, testDAI, testUSDC); !errors.Is(err, ErrMalformedRoute) {
		t.Fatalf("empty route: %v", err)
	}
	if _, err := NewRoute([]*Pool{daiUSDC}, testWETH, testUSDC); !errors.Is(err, ErrMalformedRoute) {
		t.Fatalf("input not in first pool: %v", err)
	}
	if _, err := NewRoute([]*Pool{daiUSDC}, testDAI, testWETH); !errors.Is(err, ErrMalformedRoute) {
		t.Fatalf("wrong output: %v", err)
	}
	if _, err := NewRoute([]*Pool{daiUSDC, ethWETH}, testDAI, testWETH); !errors.Is(err, ErrMalformedRoute) {
		t.Fatalf("disconnected pools: %v", err)
	}
}

func TestRouteMidPrice(t *testing.T) {
	daiUSDC := fullRangePool(t, testDAI, testUSDC)
	usdcWETH := fullRangePool(t, testUSDC, testWETH)
	route, err := NewRoute([]*Pool{daiUSDC, usdcWETH}, testDAI, testWETH)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	mid, err := route.MidPrice()
	if err != nil {
		t.Fatalf("MidPrice: %v", err)
	}
	// Both pools sit at a 1:1 raw price.
	if !mid.Fraction.Equal(FractionFromInt(1)) {
		t.Fatalf("mid price = %s/%s, want 1", mid.Numerator, mid.Denominator)
	}
	if !mid.Base.Equal(testDAI) || !mid.Quote.Equal(testWETH) {
		t.Fatalf("mid price currencies = %s/%s", mid.Base, mid.Quote)
	}
}
