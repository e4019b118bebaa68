package order

import "github.com/shopspring/decimal"

// maxTotal caps a single order just below 10^12, the upper bound of the
// NUMERIC(14,2) total column. Totals at or beyond it are treated as invalid
// input rather than being bounced by the database.
var maxTotal = decimal.New(1, 12)

// ComputeTotal sums price × quantity over the items using decimal arithmetic,
// so the result is exact regardless of item count or ordering.
func ComputeTotal(items []OrderItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	if total.GreaterThanOrEqual(maxTotal) {
		return decimal.Zero, validationErrorf("order total %s exceeds the maximum of %s", total, maxTotal)
	}
	return total, nil
}
