/*
seed.go - Demo data loader

Loads a small, recognizable dataset for manual testing: three products,
three warehouses, and opening stock recorded as init ledger entries so the
replay invariant holds from the very first entry.
*/
package api

import (
	"context"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/workflow"
)

// Seed populates the engine with demo data. Intended for a fresh engine;
// loading twice fails on the duplicate SKUs and warehouse codes.
func Seed(ctx context.Context, e *workflow.Engine) error {
	warehouses := []struct{ code, name, address string }{
		{"MAIN", "Main Warehouse", "HQ"},
		{"PROD", "Production Floor", "Plant"},
		{"CDC", "Central DC", "DC 1"},
	}
	for _, w := range warehouses {
		if _, err := e.CreateWarehouse(ctx, w.code, w.name, w.address); err != nil {
			return err
		}
	}

	type opening struct {
		warehouse string
		qty       int64
	}
	products := []struct {
		in    workflow.ProductInput
		stock []opening
	}{
		{
			in:    workflow.ProductInput{SKU: "SR-001", Name: "Steel Rod", Category: "Raw", UoM: "kg", ReorderLevel: 10},
			stock: []opening{{"MAIN", 200}, {"PROD", 120}},
		},
		{
			in:    workflow.ProductInput{SKU: "CH-082", Name: "Chair", Category: "Finished", UoM: "pcs", ReorderLevel: 5},
			stock: []opening{{"MAIN", 42}},
		},
		{
			in:    workflow.ProductInput{SKU: "CB-022", Name: "Cheese Balls", Category: "Food", UoM: "pcs", ReorderLevel: 2},
			stock: []opening{{"MAIN", 0}},
		},
	}

	for _, p := range products {
		created, err := e.CreateProduct(ctx, p.in)
		if err != nil {
			return err
		}
		for _, s := range p.stock {
			if _, err := e.InitStock(ctx, created.ID, s.warehouse, "", inventory.Qty(s.qty)); err != nil {
				return err
			}
		}
	}
	return nil
}
