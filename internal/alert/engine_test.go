package alert

import (
	"testing"
	"time"

	"TickerSentinel/internal/model"
)

var now = time.Date(2026, time.February, 18, 17, 0, 0, 0, time.UTC)

func TestCheck_ArmsBeforeTriggering(t *testing.T) {
	alerts := []model.PriceAlert{model.NewPriceAlert("AAPL", 100, model.Above)}
	quotes := []model.Quote{{Symbol: "AAPL", Price: 150, PreviousClose: 140, Currency: "USD"}}

	remaining, fired := Check(alerts, quotes, now)
	if len(fired) != 0 {
		t.Fatalf("alert fired on its creation cycle: %+v", fired)
	}
	if len(remaining) != 1 || !remaining[0].Armed {
		t.Fatalf("expected one armed alert, got %+v", remaining)
	}

	remaining, fired = Check(remaining, quotes, now)
	if len(fired) != 1 {
		t.Fatalf("expected alert to fire on second cycle, got %d", len(fired))
	}
	if len(remaining) != 0 {
		t.Errorf("fired alert should be removed, %d remain", len(remaining))
	}
	if fired[0].Price != 150 || !fired[0].FiredAt.Equal(now) {
		t.Errorf("unexpected fired alert %+v", fired[0])
	}
}

func TestCheck_SubUnitCrossing(t *testing.T) {
	a := model.NewPriceAlert("VOD.L", 10.00, model.Above)
	a.Armed = true
	below := []model.Quote{{Symbol: "VOD.L", Price: 999, PreviousClose: 990, Currency: "GBp"}}
	above := []model.Quote{{Symbol: "VOD.L", Price: 1001, PreviousClose: 990, Currency: "GBp"}}

	remaining, fired := Check([]model.PriceAlert{a}, below, now)
	if len(fired) != 0 || len(remaining) != 1 {
		t.Fatalf("9.99 should not cross 10.00: fired=%d remaining=%d", len(fired), len(remaining))
	}

	remaining, fired = Check(remaining, above, now)
	if len(fired) != 1 || len(remaining) != 0 {
		t.Fatalf("10.01 should cross 10.00: fired=%d remaining=%d", len(fired), len(remaining))
	}
	if fired[0].Price != 10.01 {
		t.Errorf("expected display price 10.01, got %.4f", fired[0].Price)
	}
	if fired[0].Currency != "GBP" {
		t.Errorf("expected GBP, got %s", fired[0].Currency)
	}
}

func TestCheck_Below(t *testing.T) {
	a := model.NewPriceAlert("TSLA", 200, model.Below)
	a.Armed = true
	quotes := []model.Quote{{Symbol: "TSLA", Price: 200, PreviousClose: 210}}

	_, fired := Check([]model.PriceAlert{a}, quotes, now)
	if len(fired) != 1 {
		t.Fatal("price equal to target should trigger a below alert")
	}
}

func TestCheck_MissingQuoteUntouched(t *testing.T) {
	a := model.NewPriceAlert("NFLX", 1, model.Above)
	remaining, fired := Check([]model.PriceAlert{a}, nil, now)
	if len(fired) != 0 || len(remaining) != 1 {
		t.Fatalf("unexpected result fired=%d remaining=%d", len(fired), len(remaining))
	}
	if remaining[0].Armed {
		t.Error("alert without a quote must stay unarmed")
	}
}

func TestCheck_OrderPreserved(t *testing.T) {
	a1 := model.NewPriceAlert("AAPL", 500, model.Above)
	a2 := model.NewPriceAlert("AAPL", 100, model.Above)
	a3 := model.NewPriceAlert("MSFT", 1, model.Below)
	for _, a := range []*model.PriceAlert{&a1, &a2, &a3} {
		a.Armed = true
	}
	quotes := []model.Quote{{Symbol: "AAPL", Price: 150}, {Symbol: "MSFT", Price: 400}}

	remaining, fired := Check([]model.PriceAlert{a1, a2, a3}, quotes, now)
	if len(fired) != 1 || fired[0].Alert.ID != a2.ID {
		t.Fatalf("expected only a2 to fire, got %+v", fired)
	}
	if len(remaining) != 2 || remaining[0].ID != a1.ID || remaining[1].ID != a3.ID {
		t.Errorf("unexpected remaining order %+v", remaining)
	}
}

func TestMessage(t *testing.T) {
	f := model.FiredAlert{
		Alert:    model.PriceAlert{Symbol: "VOD.L", TargetPrice: 0.7, Direction: model.Above},
		Price:    0.7312,
		Currency: "GBP",
	}
	if got := Title(f); got != "VOD.L Price Alert" {
		t.Errorf("title = %q", got)
	}
	want := "VOD.L is now £0.73, above your target of £0.70"
	if got := Body(f); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestRemoveHelpers(t *testing.T) {
	a1 := model.NewPriceAlert("AAPL", 1, model.Above)
	a2 := model.NewPriceAlert("MSFT", 2, model.Below)
	a3 := model.NewPriceAlert("AAPL", 3, model.Below)
	alerts := []model.PriceAlert{a1, a2, a3}

	if got := ForSymbol(alerts, "AAPL"); len(got) != 2 {
		t.Errorf("ForSymbol returned %d alerts", len(got))
	}
	out, ok := Remove(alerts, a2.ID)
	if !ok || len(out) != 2 {
		t.Fatalf("Remove failed: ok=%v len=%d", ok, len(out))
	}
	if _, ok := Remove(out, "missing"); ok {
		t.Error("Remove of unknown id reported success")
	}
	if got := RemoveSymbol(alerts, "AAPL"); len(got) != 1 || got[0].ID != a2.ID {
		t.Errorf("RemoveSymbol left %+v", got)
	}
}
