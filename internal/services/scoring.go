package services

import "github.com/cartpilot/cartpilot/internal/models"

const defaultConfidence = 80

// computeConfidence scores a completed cycle. Each detectable problem
// with the proposed outcome deducts from the base score, clamped to
// 0..100.
func computeConfidence(res *models.AssistantResult, items []enrichedItem, promoApplied, promoValid bool) int {
	score := res.Confidence
	if score <= 0 {
		score = defaultConfidence
	}

	for _, e := range items {
		if e.product == nil || e.product.StockStatus() == models.StockOutOfStock {
			score -= 20
		}
	}

	if promoApplied && !promoValid {
		score -= 15
	}

	if res.Action == models.ActionBundle && !res.BundleComplete {
		score -= 20
	}

	seen := make(map[string]int, len(items))
	for _, e := range items {
		seen[e.item.ProductID]++
	}
	for _, n := range seen {
		if n > 1 {
			score -= 10
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func computeRisk(confidence int) string {
	switch {
	case confidence <= 40:
		return "high"
	case confidence <= 70:
		return "medium"
	default:
		return "low"
	}
}

// computeUpsells collects related products across the cart, skipping
// anything already in the cart, deduplicated, capped at five.
func computeUpsells(items []enrichedItem) []models.ProductRef {
	inCart := make(map[string]bool, len(items))
	for _, e := range items {
		inCart[e.item.ProductID] = true
	}

	seen := make(map[string]bool)
	upsells := []models.ProductRef{}
	for _, e := range items {
		if e.product == nil {
			continue
		}
		for _, rel := range e.product.RelatedProducts {
			if inCart[rel.ProductID] || seen[rel.ProductID] {
				continue
			}
			seen[rel.ProductID] = true
			upsells = append(upsells, rel)
			if len(upsells) == maxUpsells {
				return upsells
			}
		}
	}
	return upsells
}
