package main

import (
	"fmt"

	"github.com/fjod/techmart/internal/checkout"
	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/pricing"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckoutCmd(opts *rootOptions) *cobra.Command {
	var (
		buyNow      bool
		code        string
		saveBilling bool
		billing     domain.BillingDetails
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Check out the cart (or the buy-now slot) in one step",
		Long: `checkout begins a session, applies --promo if given and submits the order.

Billing fields left empty are taken from the logged-in user's profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := checkout.ModeCart
			if buyNow {
				mode = checkout.ModeBuyNow
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				sess, err := a.checkout.Begin(ctx, mode)
				if err != nil {
					return err
				}
				if code != "" {
					if sess, err = a.checkout.ApplyPromo(ctx, sess.ID, code); err != nil {
						return err
					}
				}

				sess, err = a.checkout.Submit(ctx, sess.ID, mergeBilling(sess.Billing, billing), checkout.SubmitOptions{SaveBilling: saveBilling})
				if err != nil {
					return err
				}
				a.log.Debug("checkout finished", zap.String("session_id", sess.ID.String()))
				if sess.LastError != "" {
					a.log.Warn(sess.LastError, zap.String("order_id", sess.Order.ID.String()))
				}
				if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "order %s placed, total %s\n",
					sess.Order.ID, pricing.Format(sess.Order.Summary.Total)); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sess.Order)
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&buyNow, "buy-now", false, "check out the buy-now slot instead of the cart")
	f.StringVar(&code, "promo", "", "promo code to apply")
	f.BoolVar(&saveBilling, "save-billing", false, "copy the billing details onto the profile")
	f.StringVar(&billing.FirstName, "first-name", "", "billing first name")
	f.StringVar(&billing.LastName, "last-name", "", "billing last name")
	f.StringVar(&billing.Email, "email", "", "billing email")
	f.StringVar(&billing.Phone, "phone", "", "billing phone")
	f.StringVar(&billing.Company, "company", "", "billing company")
	f.StringVar(&billing.Address, "address", "", "street address")
	f.StringVar(&billing.City, "city", "", "city")
	f.StringVar(&billing.State, "state", "", "state or region")
	f.StringVar(&billing.Zip, "zip", "", "postal code")
	f.StringVar(&billing.Country, "country", "", "country")
	f.StringVar(&billing.PaymentMethod, "payment", "card", "payment method (card, cash, paypal)")
	return cmd
}

// mergeBilling overlays the non-empty fields of override on draft.
func mergeBilling(draft, override domain.BillingDetails) domain.BillingDetails {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&draft.FirstName, override.FirstName)
	pick(&draft.LastName, override.LastName)
	pick(&draft.Email, override.Email)
	pick(&draft.Phone, override.Phone)
	pick(&draft.Company, override.Company)
	pick(&draft.Address, override.Address)
	pick(&draft.City, override.City)
	pick(&draft.State, override.State)
	pick(&draft.Zip, override.Zip)
	pick(&draft.Country, override.Country)
	pick(&draft.PaymentMethod, override.PaymentMethod)
	return draft
}

func newOrdersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Read the order archive",
	}

	var email string
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived orders, optionally for one billing email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				if email != "" {
					return printJSON(cmd.OutOrStdout(), a.archive.FindByUser(cmd.Context(), email))
				}
				return printJSON(cmd.OutOrStdout(), a.archive.All(cmd.Context()))
			})
		},
	}
	list.Flags().StringVar(&email, "email", "", "billing email to filter on")

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Print one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("order id: %w", err)
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				order, err := a.archive.ByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), order)
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
