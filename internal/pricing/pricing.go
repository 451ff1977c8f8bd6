package pricing

import (
	"strings"

	"frankiemoji/backend/internal/models"
)

// DefaultTier is charged when a caller passes an unknown tier. Resolve is
// deliberately lenient; callers that must reject unknown tiers check
// IsKnownTier first.
const DefaultTier = models.PackStarter

type tier struct {
	Pack       models.PackType
	Label      string
	PriceCents int64
}

var tiers = []tier{
	{Pack: models.PackStarter, Label: "Starter Pack", PriceCents: 900},
	{Pack: models.PackStandard, Label: "Standard Pack", PriceCents: 1500},
	{Pack: models.PackPremium, Label: "Premium Pack", PriceCents: 2500},
}

// promoPercent is the discount table keyed by normalized code.
var promoPercent = map[string]int64{
	"holiday15": 15,
	"frankie10": 10,
	"donni10":   10,
	"aaron10":   10,
	"crew100":   100,
}

// Quote is the resolved price of a pack.
type Quote struct {
	PackType     models.PackType
	BaseCents    int64
	FinalCents   int64
	AppliedPromo string
}

// Resolve prices packTier with an optional promo code. Unknown promo codes are
// ignored rather than rejected so a typo never blocks checkout.
func Resolve(packTier, promoCodeRaw string) Quote {
	t := lookupTier(packTier)
	quote := Quote{
		PackType:   t.Pack,
		BaseCents:  t.PriceCents,
		FinalCents: t.PriceCents,
	}
	code := NormalizePromo(promoCodeRaw)
	pct, ok := promoPercent[code]
	if !ok {
		return quote
	}
	quote.AppliedPromo = code
	quote.FinalCents = quote.BaseCents - discount(quote.BaseCents, pct)
	if quote.FinalCents < 0 {
		quote.FinalCents = 0
	}
	return quote
}

// NormalizePromo trims and lowercases a promo code.
func NormalizePromo(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeTier trims and lowercases a tier name without resolving it.
func NormalizeTier(raw string) models.PackType {
	return models.PackType(strings.ToLower(strings.TrimSpace(raw)))
}

// IsKnownTier reports whether raw names a tier in the price table.
func IsKnownTier(raw string) bool {
	_, ok := findTier(NormalizeTier(raw))
	return ok
}

// PromoPercent returns the discount percentage for a normalized code.
func PromoPercent(code string) (int64, bool) {
	pct, ok := promoPercent[NormalizePromo(code)]
	return pct, ok
}

// Label is the human-readable tier name used in customer messages.
func Label(pack models.PackType) string {
	if t, ok := findTier(NormalizeTier(string(pack))); ok {
		return t.Label
	}
	return "Emoji Pack"
}

// Tiers lists the known pack tiers in price order.
func Tiers() []models.PackType {
	out := make([]models.PackType, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, t.Pack)
	}
	return out
}

func lookupTier(raw string) tier {
	if t, ok := findTier(NormalizeTier(raw)); ok {
		return t
	}
	t, _ := findTier(DefaultTier)
	return t
}

func findTier(pack models.PackType) (tier, bool) {
	for _, t := range tiers {
		if t.Pack == pack {
			return t, true
		}
	}
	return tier{}, false
}

// discount is round(base*pct/100), half away from zero, with pct clamped to
// 0..100.
func discount(baseCents, pct int64) int64 {
	if baseCents <= 0 || pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}
	return (baseCents*pct + 50) / 100
}
