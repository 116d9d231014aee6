/*
Package catalog holds the reference data ledger mutations point to.

PURPOSE:
  Products and warehouses live here. The catalog validates existence and
  creation; it knows nothing about quantities. Two deliberate behaviors:

  - Warehouse codes are normalized to upper case, and an unknown code is
    auto-created ("ensured") the first time a document references it, with
    the name defaulting to the code. Every stock key's warehouse component
    therefore always resolves to a Warehouse record.
  - Product SKUs are unique and case-preserving. Once a product is
    referenced by ledger entries only its metadata may change, and it can
    never be deleted (the workflow engine enforces the ledger side of that
    guard, since the catalog is a leaf).
*/
package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// RECORDS
// =============================================================================

type Product struct {
	ID           inventory.ProductID
	SKU          string
	Name         string
	Category     string
	UoM          string
	ReorderLevel int
	CreatedAt    time.Time
}

type Warehouse struct {
	Code    inventory.WarehouseCode
	Name    string
	Address string
}

// NewProduct carries the creatable fields of a product.
type NewProduct struct {
	SKU          string
	Name         string
	Category     string
	UoM          string
	ReorderLevel int
}

// ProductUpdate carries the mutable metadata fields. Nil means unchanged.
// SKU and UoM are not here: they are fixed once the product exists.
type ProductUpdate struct {
	Name         *string
	Category     *string
	ReorderLevel *int
}

// NormalizeCode upper-cases and trims a warehouse code.
func NormalizeCode(code string) inventory.WarehouseCode {
	return inventory.WarehouseCode(strings.ToUpper(strings.TrimSpace(code)))
}

// =============================================================================
// CATALOG
// =============================================================================

type Catalog struct {
	mu         sync.RWMutex
	products   map[inventory.ProductID]Product
	bySKU      map[string]inventory.ProductID
	warehouses map[inventory.WarehouseCode]Warehouse
	now        func() time.Time
}

func New() *Catalog {
	return &Catalog{
		products:   make(map[inventory.ProductID]Product),
		bySKU:      make(map[string]inventory.ProductID),
		warehouses: make(map[inventory.WarehouseCode]Warehouse),
		now:        time.Now,
	}
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (c *Catalog) CreateProduct(in NewProduct) (Product, error) {
	if in.Name == "" {
		return Product{}, &inventory.ValidationError{Field: "name", Reason: "required"}
	}
	if in.SKU == "" {
		return Product{}, &inventory.ValidationError{Field: "sku", Reason: "required"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.bySKU[in.SKU]; exists {
		return Product{}, &inventory.ValidationError{Field: "sku", Reason: "already exists"}
	}

	uom := in.UoM
	if uom == "" {
		uom = "pcs"
	}
	p := Product{
		ID:           inventory.ProductID(uuid.NewString()),
		SKU:          in.SKU,
		Name:         in.Name,
		Category:     in.Category,
		UoM:          uom,
		ReorderLevel: in.ReorderLevel,
		CreatedAt:    c.now(),
	}
	c.products[p.ID] = p
	c.bySKU[p.SKU] = p.ID
	return p, nil
}

func (c *Catalog) Product(id inventory.ProductID) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, &inventory.NotFoundError{Kind: "product", ID: string(id)}
	}
	return p, nil
}

func (c *Catalog) HasProduct(id inventory.ProductID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.products[id]
	return ok
}

func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// UpdateProduct changes metadata only.
func (c *Catalog) UpdateProduct(id inventory.ProductID, upd ProductUpdate) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return Product{}, &inventory.NotFoundError{Kind: "product", ID: string(id)}
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return Product{}, &inventory.ValidationError{Field: "name", Reason: "required"}
		}
		p.Name = *upd.Name
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.ReorderLevel != nil {
		p.ReorderLevel = *upd.ReorderLevel
	}
	c.products[id] = p
	return p, nil
}

// DeleteProduct removes a product record. The caller is responsible for the
// referential-integrity check against the ledger before calling this.
func (c *Catalog) DeleteProduct(id inventory.ProductID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return &inventory.NotFoundError{Kind: "product", ID: string(id)}
	}
	delete(c.products, id)
	delete(c.bySKU, p.SKU)
	return nil
}

// =============================================================================
// WAREHOUSES
// =============================================================================

func (c *Catalog) CreateWarehouse(code, name, address string) (Warehouse, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Warehouse{}, &inventory.ValidationError{Field: "code", Reason: "required"}
	}
	if name == "" {
		return Warehouse{}, &inventory.ValidationError{Field: "name", Reason: "required"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.warehouses[normalized]; exists {
		return Warehouse{}, &inventory.ValidationError{Field: "code", Reason: "already exists"}
	}
	w := Warehouse{Code: normalized, Name: name, Address: address}
	c.warehouses[normalized] = w
	return w, nil
}

// EnsureWarehouse auto-creates an unknown warehouse, name defaulting to the
// code. Returns the existing record otherwise.
func (c *Catalog) EnsureWarehouse(code inventory.WarehouseCode) Warehouse {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.warehouses[code]; ok {
		return w
	}
	w := Warehouse{Code: code, Name: string(code)}
	c.warehouses[code] = w
	return w
}

func (c *Catalog) Warehouse(code inventory.WarehouseCode) (Warehouse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.warehouses[code]
	if !ok {
		return Warehouse{}, &inventory.NotFoundError{Kind: "warehouse", ID: string(code)}
	}
	return w, nil
}

func (c *Catalog) Warehouses() []Warehouse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Warehouse, 0, len(c.warehouses))
	for _, w := range c.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
