package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/pricing"
	"github.com/spf13/cobra"
)

func newCartCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the stored cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart with its price summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				return printCart(cmd.Context(), cmd.OutOrStdout(), a)
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a catalog product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := quantityArg(args, 1)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				p, err := lookupProduct(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				if err := a.ledger.Add(cmd.Context(), p, qty); err != nil {
					return err
				}
				return printCart(cmd.Context(), cmd.OutOrStdout(), a)
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change the quantity of a line; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[1])
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				if err := a.ledger.UpdateQuantity(cmd.Context(), domain.ProductID(args[0]), qty); err != nil {
					return err
				}
				return printCart(cmd.Context(), cmd.OutOrStdout(), a)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				if err := a.ledger.Remove(cmd.Context(), domain.ProductID(args[0])); err != nil {
					return err
				}
				return printCart(cmd.Context(), cmd.OutOrStdout(), a)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				return a.ledger.Clear(cmd.Context())
			})
		},
	}

	var dropPromo bool
	promoCmd := &cobra.Command{
		Use:   "promo [code]",
		Short: "Apply a promo code to the cart, or drop it with --clear",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				if dropPromo {
					if err := a.promos.Clear(ctx); err != nil {
						return err
					}
					return printCart(ctx, cmd.OutOrStdout(), a)
				}
				code := ""
				if len(args) == 1 {
					code = args[0]
				}
				if _, err := a.promos.Apply(ctx, code); err != nil {
					return err
				}
				return printCart(ctx, cmd.OutOrStdout(), a)
			})
		},
	}
	promoCmd.Flags().BoolVar(&dropPromo, "clear", false, "remove the stored promo code")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite a stored cart from older layouts into the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				kept, err := a.ledger.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "cart migrated, %d line(s) kept\n", kept)
				return err
			})
		},
	}

	cmd.AddCommand(show, add, set, remove, clearCmd, promoCmd, migrate)
	return cmd
}

func newBuyNowCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buynow",
		Short: "Manage the single-product buy-now slot",
	}

	set := &cobra.Command{
		Use:   "set <product-id> [quantity]",
		Short: "Replace the buy-now slot with a product",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := quantityArg(args, 1)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				p, err := lookupProduct(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				if err := a.buyNow.SetProduct(cmd.Context(), p, qty); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a.buyNow.Get(cmd.Context()))
			})
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the buy-now slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				items := a.buyNow.Get(cmd.Context())
				if items == nil {
					items = []domain.CartLineItem{}
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the buy-now slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				return a.buyNow.Clear(cmd.Context())
			})
		},
	}

	cmd.AddCommand(set, show, clearCmd)
	return cmd
}

type cartOutput struct {
	Items     []domain.CartLineItem `json:"items"`
	ItemCount int                   `json:"itemCount"`
	Promo     *domain.PromoState    `json:"promo,omitempty"`
	Summary   domain.PriceSummary   `json:"summary"`
	Total     string                `json:"total"`
}

func printCart(ctx context.Context, w io.Writer, a *app) error {
	items := a.ledger.Items(ctx)
	if items == nil {
		items = []domain.CartLineItem{}
	}
	promo := a.promos.Current(ctx)
	percent := 0
	if promo.Active() {
		percent = promo.Percent
	}
	summary := a.ledger.Summary(ctx, percent)
	return printJSON(w, cartOutput{
		Items:     items,
		ItemCount: a.ledger.ItemCount(ctx),
		Promo:     promo,
		Summary:   summary.Rounded(),
		Total:     pricing.Format(summary.Total),
	})
}

func lookupProduct(ctx context.Context, a *app, id string) (domain.Product, error) {
	p, ok := a.catalog.Product(ctx, domain.ProductID(id))
	if !ok {
		return domain.Product{}, fmt.Errorf("product %q not found", id)
	}
	return p, nil
}

func quantityArg(args []string, idx int) (int, error) {
	if len(args) <= idx {
		return 1, nil
	}
	qty, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not a number", args[idx])
	}
	return qty, nil
}
