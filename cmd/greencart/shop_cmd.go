package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/angelmondragon/greencart/internal/app"
	"github.com/angelmondragon/greencart/internal/catalog"
	"github.com/angelmondragon/greencart/pkg/pagination"
	"github.com/spf13/cobra"
)

func (c *cli) productsCmd() *cobra.Command {
	var (
		category string
		page     pagination.Params
	)
	cmd := &cobra.Command{
		Use:   "products [query]",
		Short: "List or search the catalog",
		Long: `List the catalog. With a query, only in-stock products whose name or
category contains it are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(c.cfg.Catalog.File)
			if err != nil {
				return err
			}
			var products []catalog.Product
			switch {
			case len(args) == 1:
				products = cat.Search(args[0])
			case category != "":
				products = cat.ByCategory(category)
			default:
				products = cat.All()
			}
			products, next, err := catalog.Paginate(products, page)
			if err != nil {
				return err
			}
			c.printProducts(products)
			if next != "" {
				c.printf("More products: --cursor %s\n", next)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")
	cmd.Flags().IntVar(&page.Limit, "limit", pagination.DefaultLimit, "products per page")
	cmd.Flags().StringVar(&page.Cursor, "cursor", "", "cursor printed by the previous page")
	return cmd
}

func (c *cli) printProducts(products []catalog.Product) {
	if len(products) == 0 {
		c.printf("No products found\n")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tOFFER\tSTOCK")
	for _, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s%s\t%s%s\t%s\n",
			p.ID, p.Name, p.Category,
			c.cfg.App.Currency, p.Price.StringFixed(2),
			c.cfg.App.Currency, p.OfferPrice.StringFixed(2),
			stock)
	}
	_ = tw.Flush()
}

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), c.showCart)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					return a.Cart.AddItem(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <quantity>",
			Short: "Set the quantity of a product; zero removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be a whole number: %w", err)
				}
				return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					return a.Cart.SetQuantity(ctx, args[0], qty)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					return a.Cart.RemoveItem(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

func (c *cli) showCart(_ context.Context, a *app.App) error {
	if !a.Store.State().Authenticated() {
		c.printf("Not logged in\n")
		return nil
	}
	items := a.Cart.Items()
	if items.TotalCount() == 0 {
		c.printf("Cart is empty\n")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT")
	for _, id := range items.IDs() {
		name, unit := "(unknown product)", "-"
		if p, ok := a.Catalog.Find(id); ok {
			name = p.Name
			unit = c.cfg.App.Currency + p.OfferPrice.StringFixed(2)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", id, name, items.Quantity(id), unit)
	}
	_ = tw.Flush()
	c.printf("Items: %d  Total: %s%s\n", a.Cart.TotalCount(), c.cfg.App.Currency, a.Cart.TotalAmount().StringFixed(2))
	return nil
}
