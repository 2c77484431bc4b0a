// Package backoffice holds the operator CLI: order status changes, catalog
// imports and admin grants, run against the same services the API uses.
package backoffice

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/importer"
)

type orderUpdater interface {
	UpdateStatus(ctx context.Context, actor domain.Identity, id string, status domain.OrderStatus) (*domain.Order, error)
}

type accountAdmin interface {
	GrantRole(ctx context.Context, email string, role domain.Role) (*domain.Customer, error)
	RevokeSessions(ctx context.Context, email string) (int64, error)
	PruneTokens(ctx context.Context) (int64, error)
}

// Backend is the set of services commands act on.
type Backend struct {
	Orders   orderUpdater
	Accounts accountAdmin
	Products importer.ProductWriter
}

// Opener builds a Backend on first use. The returned func releases it.
type Opener func(ctx context.Context) (*Backend, func(), error)

// operator is the identity status changes are attributed to.
var operator = domain.Identity{UserID: "backoffice", IsAdmin: true}

// NewRootCommand creates the backoffice command tree.
func NewRootCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "backoffice",
		Short:         "ReTech store operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newOrderCommand(open))
	cmd.AddCommand(newProductCommand(open))
	cmd.AddCommand(newGrantAdminCommand(open))
	cmd.AddCommand(newRevokeSessionsCommand(open))
	cmd.AddCommand(newTokensCommand(open))
	return cmd
}

func withBackend(cmd *cobra.Command, open Opener, fn func(context.Context, *Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, release, err := open(ctx)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return fn(ctx, b)
}

func newOrderCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Manage orders"}
	cmd.AddCommand(&cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Move an order to a new status",
		Long: `Move an order to a new status. Allowed transitions:
  NEW -> PAID | CANCELLED
  PAID -> SHIPPED | CANCELLED
  SHIPPED -> DONE | CANCELLED
Cancelling returns the ordered quantities to stock.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				updated, err := b.Orders.UpdateStatus(ctx, operator, args[0], domain.OrderStatus(args[1]))
				if updated != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "order %s is now %s\n", updated.ID, updated.Status)
				}
				if err != nil && updated != nil {
					return fmt.Errorf("status changed but restock failed: %w", err)
				}
				return err
			})
		},
	})
	return cmd
}

func newProductCommand(open Opener) *cobra.Command {
	var file string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import products from a CSV export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				res, err := importer.NewCSVImporter(f, b.Products, nil).Run(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", res.Imported, res.Skipped)
				return err
			})
		},
	}
	imp.Flags().StringVarP(&file, "file", "f", "", "path to the CSV file")
	_ = imp.MarkFlagRequired("file")

	cmd := &cobra.Command{Use: "product", Short: "Manage the catalog"}
	cmd.AddCommand(imp)
	return cmd
}

func newGrantAdminCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Give an existing account the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				c, err := b.Accounts.GrantRole(ctx, args[0], domain.RoleAdmin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", c.Email)
				return nil
			})
		},
	}
}

func newRevokeSessionsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <email>",
		Short: "Sign a customer out of every device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				n, err := b.Accounts.RevokeSessions(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %d tokens\n", n)
				return nil
			})
		},
	}
}

func newTokensCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{Use: "tokens", Short: "Token housekeeping"}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired customer and guest tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				n, err := b.Accounts.PruneTokens(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired tokens\n", n)
				return nil
			})
		},
	})
	return cmd
}
