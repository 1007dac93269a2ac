package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pizzanova/backend/config"
	"github.com/pizzanova/backend/database/seeders"
	"github.com/pizzanova/backend/internal/server"
	"github.com/pizzanova/backend/pkg/database"
)

func main() {
	root := &cobra.Command{
		Use:          "pizzanova",
		Short:        "Pizza ordering platform API",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), seedCmd(), adminCreateCmd(), routeListCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run()
		},
	}
}

// withDatabase runs fn against a connected database and tears it down.
func withDatabase(fn func(ctx context.Context) error) error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer database.Disconnect(context.Background()) //nolint:errcheck

	if err := server.EnsureIndexes(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the starter catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(seeders.Products)
		},
	}
}

func adminCreateCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "admin:create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context) error {
				return seeders.Admin(ctx, name, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "login password (required)")
	cmd.MarkFlagRequired("email")    //nolint:errcheck
	cmd.MarkFlagRequired("password") //nolint:errcheck

	return cmd
}

func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "Print the named route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := server.BuildRouter()
			if err != nil {
				return err
			}

			routes := r.Routes()
			names := make([]string, 0, len(routes))
			for name := range routes {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Printf("%-30s %s\n", name, routes[name])
			}
			return nil
		},
	}
}
