package assets

// Live market pairs, quoted only while the underlying market is open.
var Live = []string{
	"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "NZDUSD", "USDCAD",
	"USDCHF", "EURGBP", "EURJPY", "GBPJPY", "CADJPY", "AUDNZD",
	"EURSGD", "USDTRY", "USDINR", "USDMXN", "USDZAR", "USDBRL",
}

// OTC pairs, quoted around the clock by the broker itself.
var OTC = []string{
	"EURUSD_otc", "GBPUSD_otc", "USDJPY_otc", "AUDUSD_otc",
	"NZDUSD_otc", "USDCAD_otc", "USDCHF_otc", "EURGBP_otc",
	"EURJPY_otc", "GBPJPY_otc", "AUDCAD_otc", "USDINR_otc",
	"USDBRL_otc", "USDTRY_otc", "USDPKR_otc", "USDZAR_otc",
}

// Default returns the full scan universe, live pairs first.
func Default() []string {
	out := make([]string, 0, len(Live)+len(OTC))
	out = append(out, Live...)
	out = append(out, OTC...)
	return out
}
