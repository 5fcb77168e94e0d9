package checkout

import (
	"net/url"
)

type Mode string

const (
	ModeCart   Mode = "cart"
	ModeBuyNow Mode = "buyNow"
)

// ParseMode reads the value of the buyNow query parameter. Only "true" selects
// buy-now; anything else, including absence, means cart.
func ParseMode(buyNow string) Mode {
	if buyNow == "true" {
		return ModeBuyNow
	}
	return ModeCart
}

func ModeFromQuery(q url.Values) Mode {
	return ParseMode(q.Get("buyNow"))
}

func (m Mode) String() string {
	return string(m)
}
