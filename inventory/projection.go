/*
projection.go - Derived read-only views over the stock index

These are recomputed on demand from the live quantities, never cached state
that could drift.
*/
package inventory

import "sort"

// Levels returns every known stock bucket, sorted by key for stable output.
func (ix *StockIndex) Levels() []StockLevel {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]StockLevel, 0, len(ix.quantities))
	for k, q := range ix.quantities {
		out = append(out, StockLevel{ProductID: k.ProductID, Warehouse: k.Warehouse, Location: k.Location, Quantity: q})
	}
	sortLevels(out)
	return out
}

// LevelsFor returns the buckets holding a given product.
func (ix *StockIndex) LevelsFor(productID ProductID) []StockLevel {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []StockLevel
	for k, q := range ix.quantities {
		if k.ProductID == productID {
			out = append(out, StockLevel{ProductID: k.ProductID, Warehouse: k.Warehouse, Location: k.Location, Quantity: q})
		}
	}
	sortLevels(out)
	return out
}

// TotalStock sums a product's quantity over all its buckets.
func (ix *StockIndex) TotalStock(productID ProductID) Quantity {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := ZeroQty()
	for k, q := range ix.quantities {
		if k.ProductID == productID {
			total = total.Add(q)
		}
	}
	return total
}

// StockByWarehouse maps warehouse code to a product's summed quantity
// across that warehouse's locations.
func (ix *StockIndex) StockByWarehouse(productID ProductID) map[WarehouseCode]Quantity {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[WarehouseCode]Quantity)
	for k, q := range ix.quantities {
		if k.ProductID != productID {
			continue
		}
		if cur, ok := out[k.Warehouse]; ok {
			out[k.Warehouse] = cur.Add(q)
		} else {
			out[k.Warehouse] = q
		}
	}
	return out
}

func sortLevels(levels []StockLevel) {
	sort.Slice(levels, func(i, j int) bool {
		a, b := levels[i], levels[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.Warehouse != b.Warehouse {
			return a.Warehouse < b.Warehouse
		}
		return a.Location < b.Location
	})
}
