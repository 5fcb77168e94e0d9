package main

import (
	"fmt"

	"github.com/fjod/techmart/internal/domain"
	"github.com/spf13/cobra"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the product catalog",
	}

	var category, subcategory string
	var onSale bool
	products := &cobra.Command{
		Use:   "products",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				var list []domain.Product
				switch {
				case category != "":
					list = a.catalog.ProductsByCategory(ctx, category)
				case subcategory != "":
					list = a.catalog.ProductsBySubcategory(ctx, subcategory)
				case onSale:
					list = a.catalog.ProductsOnSale(ctx)
				default:
					list = a.catalog.Products(ctx)
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}
	products.Flags().StringVar(&category, "category", "", "only products of this category id")
	products.Flags().StringVar(&subcategory, "subcategory", "", "only products of this subcategory id")
	products.Flags().BoolVar(&onSale, "sale", false, "only discounted products")

	product := &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product and its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				id := domain.ProductID(args[0])
				p, ok := a.catalog.Product(cmd.Context(), id)
				if !ok {
					return fmt.Errorf("product %q not found", id)
				}
				return printJSON(cmd.OutOrStdout(), struct {
					domain.Product
					Reviews []domain.Review `json:"reviews"`
				}{p, a.catalog.ReviewsFor(cmd.Context(), id)})
			})
		},
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				return printJSON(cmd.OutOrStdout(), a.catalog.Categories(cmd.Context()))
			})
		},
	}

	cmd.AddCommand(products, product, categories)
	return cmd
}
