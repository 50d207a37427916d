package model

import "strings"

// Watchlist is an ordered list of unique uppercase symbols. Order is both
// display order and fetch order.
type Watchlist []string

// NormalizeSymbol trims and upper-cases a user-entered symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Contains reports whether symbol (any case) is in the list.
func (w Watchlist) Contains(symbol string) bool {
	return w.Index(symbol) >= 0
}

// Index returns the position of symbol, or -1.
func (w Watchlist) Index(symbol string) int {
	s := NormalizeSymbol(symbol)
	for i, v := range w {
		if v == s {
			return i
		}
	}
	return -1
}

// Add appends the normalized symbol. Empty and duplicate symbols are ignored;
// the return value reports whether the list changed.
func (w Watchlist) Add(symbol string) (Watchlist, bool) {
	s := NormalizeSymbol(symbol)
	if s == "" || w.Contains(s) {
		return w, false
	}
	return append(w, s), true
}

// Remove deletes symbol from the list.
func (w Watchlist) Remove(symbol string) (Watchlist, bool) {
	i := w.Index(symbol)
	if i < 0 {
		return w, false
	}
	out := make(Watchlist, 0, len(w)-1)
	out = append(out, w[:i]...)
	return append(out, w[i+1:]...), true
}

// Move relocates the element at from to position to. Out-of-range indexes
// leave the list unchanged.
func (w Watchlist) Move(from, to int) (Watchlist, bool) {
	if from < 0 || from >= len(w) || to < 0 || to >= len(w) || from == to {
		return w, false
	}
	out := make(Watchlist, 0, len(w))
	out = append(out, w[:from]...)
	out = append(out, w[from+1:]...)
	sym := w[from]
	out = append(out[:to], append(Watchlist{sym}, out[to:]...)...)
	return out, true
}
