package ledger

import "github.com/shopspring/decimal"

// lot is a slice of a position bought in one trade.
type lot struct {
	size     decimal.Decimal
	unitCost decimal.Decimal
}

// queue is the FIFO of open lots for one group. Lot sizes are never negative.
type queue struct {
	lots []lot
}

func (q *queue) push(size, price decimal.Decimal) {
	q.lots = append(q.lots, lot{size: size, unitCost: price})
}

// consume removes size shares from the head and returns their cost basis.
// Volume beyond the held lots is dropped and adds no cost.
func (q *queue) consume(size decimal.Decimal) decimal.Decimal {
	remaining := size
	cost := decimal.Zero
	for remaining.IsPositive() && len(q.lots) > 0 {
		head := &q.lots[0]
		if head.size.LessThanOrEqual(remaining) {
			cost = cost.Add(head.size.Mul(head.unitCost))
			remaining = remaining.Sub(head.size)
			q.lots = q.lots[1:]
			continue
		}
		cost = cost.Add(remaining.Mul(head.unitCost))
		head.size = head.size.Sub(remaining)
		remaining = decimal.Zero
	}
	return cost
}

func (q *queue) totals() (shares, cost decimal.Decimal) {
	for _, l := range q.lots {
		shares = shares.Add(l.size)
		cost = cost.Add(l.size.Mul(l.unitCost))
	}
	return shares, cost
}
