package main

import (
	"fmt"

	"github.com/renmeer/cartsync/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type itemFlags struct {
	name          string
	price         string
	originalPrice string
	image         string
	size          string
	color         string
	qty           int
}

func (f *itemFlags) register(cmd *cobra.Command, withQty bool) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.price, "price", "", "unit price")
	cmd.Flags().StringVar(&f.originalPrice, "original-price", "", "pre-discount price")
	cmd.Flags().StringVar(&f.image, "image", "", "image URL")
	cmd.Flags().StringVar(&f.size, "size", "", "selected size")
	cmd.Flags().StringVar(&f.color, "color", "", "selected color")
	if withQty {
		cmd.Flags().IntVar(&f.qty, "qty", 1, "quantity (1-10)")
	}
}

func (f *itemFlags) item(id string) (domain.Item, error) {
	item := domain.Item{
		ID:       id,
		Name:     f.name,
		Image:    f.image,
		Size:     f.size,
		Color:    f.color,
		Quantity: f.qty,
	}
	if f.price != "" {
		price, err := decimal.NewFromString(f.price)
		if err != nil {
			return domain.Item{}, fmt.Errorf("invalid --price: %w", err)
		}
		item.Price = price
	}
	if f.originalPrice != "" {
		orig, err := decimal.NewFromString(f.originalPrice)
		if err != nil {
			return domain.Item{}, fmt.Errorf("invalid --original-price: %w", err)
		}
		item.OriginalPrice = &orig
	}
	return item, nil
}

// newCollectionCmd builds the cart or wishlist command tree. The two trees
// differ only where the collections do: quantity for cart lines, toggle and
// move-to-cart for the wishlist.
func newCollectionCmd(kind domain.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Manage the %s", kind),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("Show the current %s", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.manager(kind).Bootstrap(cmd.Context()); err != nil {
				return err
			}
			printCollection(kind, a.manager(kind))
			return nil
		},
	}

	addFlags := &itemFlags{}
	addCmd := &cobra.Command{
		Use:   "add ID",
		Short: fmt.Sprintf("Add a product to the %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			m := a.manager(kind)
			if err := m.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			item, err := addFlags.item(args[0])
			if err != nil {
				return err
			}
			if err := m.Add(cmd.Context(), item); err != nil {
				return err
			}
			printCollection(kind, m)
			return nil
		},
	}
	addFlags.register(addCmd, kind == domain.KindCart)

	removeCmd := &cobra.Command{
		Use:   "remove ID",
		Short: fmt.Sprintf("Remove a product from the %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			m := a.manager(kind)
			if err := m.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			if err := m.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			printCollection(kind, m)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: fmt.Sprintf("Empty the %s", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			m := a.manager(kind)
			if err := m.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			return m.Clear(cmd.Context())
		},
	}

	cmd.AddCommand(listCmd, addCmd, removeCmd, clearCmd)

	if kind == domain.KindCart {
		qtyCmd := &cobra.Command{
			Use:   "qty ID QUANTITY",
			Short: "Change the quantity of a cart line",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp()
				if err != nil {
					return err
				}
				m := a.cart
				if err := m.Bootstrap(cmd.Context()); err != nil {
					return err
				}
				var qty int
				if _, err := fmt.Sscanf(args[1], "%d", &qty); err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				if err := m.SetQuantity(cmd.Context(), args[0], qty); err != nil {
					return err
				}
				printCollection(kind, m)
				return nil
			},
		}
		cmd.AddCommand(qtyCmd)
		return cmd
	}

	toggleFlags := &itemFlags{}
	toggleCmd := &cobra.Command{
		Use:   "toggle ID",
		Short: "Add the product if absent, remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			m := a.wishlist
			if err := m.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			item, err := toggleFlags.item(args[0])
			if err != nil {
				return err
			}
			if err := m.Toggle(cmd.Context(), item); err != nil {
				return err
			}
			printCollection(kind, m)
			return nil
		},
	}
	toggleFlags.register(toggleCmd, false)

	moveCmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a wishlist entry into the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.wishlist.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			if err := a.cart.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			if err := a.wishlist.MoveToCart(cmd.Context(), a.cart, args[0]); err != nil {
				return err
			}
			printCollection(domain.KindWishlist, a.wishlist)
			printCollection(domain.KindCart, a.cart)
			return nil
		},
	}

	cmd.AddCommand(toggleCmd, moveCmd)
	return cmd
}
