package catalog

import (
	"context"

	"github.com/fjod/techmart/internal/domain"
)

func (c *Cache) Products(ctx context.Context) []domain.Product {
	return load[domain.Product](ctx, c, Products)
}

func (c *Cache) Product(ctx context.Context, id domain.ProductID) (domain.Product, bool) {
	for _, p := range c.Products(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// ProductsByCategory returns everything for "" or "all".
func (c *Cache) ProductsByCategory(ctx context.Context, categoryID string) []domain.Product {
	return filter(c.Products(ctx), categoryID, func(p domain.Product) domain.ProductID { return p.CategoryID })
}

// ProductsBySubcategory returns everything for "" or "all".
func (c *Cache) ProductsBySubcategory(ctx context.Context, subcategoryID string) []domain.Product {
	return filter(c.Products(ctx), subcategoryID, func(p domain.Product) domain.ProductID { return p.SubCategoryID })
}

func (c *Cache) ProductsOnSale(ctx context.Context) []domain.Product {
	out := []domain.Product{}
	for _, p := range c.Products(ctx) {
		if p.OnSale() {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) Categories(ctx context.Context) []domain.Category {
	return load[domain.Category](ctx, c, Categories)
}

func (c *Cache) Subcategories(ctx context.Context) []domain.Subcategory {
	return load[domain.Subcategory](ctx, c, Subcategories)
}

// Users is the static user directory, passwords included.
func (c *Cache) Users(ctx context.Context) []domain.UserRecord {
	return load[domain.UserRecord](ctx, c, Users)
}

func (c *Cache) ReviewsFor(ctx context.Context, productID domain.ProductID) []domain.Review {
	out := []domain.Review{}
	for _, r := range load[domain.Review](ctx, c, Reviews) {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out
}

func filter(products []domain.Product, id string, key func(domain.Product) domain.ProductID) []domain.Product {
	if id == "" || id == "all" {
		return products
	}
	out := []domain.Product{}
	for _, p := range products {
		if key(p).String() == id {
			out = append(out, p)
		}
	}
	return out
}
