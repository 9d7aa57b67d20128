package broker

type payoutKind int

const (
	payoutNone payoutKind = iota
	payoutSingle
	payoutKeyed
)

// Payout is a broker payout quote. Brokers report it either as a
// single number or as a mapping keyed by expiry bucket, so the two
// shapes are kept as distinct variants instead of an untyped blob.
type Payout struct {
	kind   payoutKind
	single float64
	keyed  map[string]float64
}

// SinglePayout wraps a plain numeric quote.
func SinglePayout(v float64) Payout {
	return Payout{kind: payoutSingle, single: v}
}

// KeyedPayout wraps a quote keyed by expiry bucket, e.g. "1M".
func KeyedPayout(m map[string]float64) Payout {
	return Payout{kind: payoutKeyed, keyed: m}
}

// Percent resolves the quote to a percentage. Keyed quotes are read
// from the "1M" bucket first, then the legacy "1" bucket; a bucket
// miss or an empty quote resolves to 0.
func (p Payout) Percent() float64 {
	switch p.kind {
	case payoutSingle:
		return p.single
	case payoutKeyed:
		if v, ok := p.keyed["1M"]; ok {
			return v
		}
		if v, ok := p.keyed["1"]; ok {
			return v
		}
	}
	return 0
}
