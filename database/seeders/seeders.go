// Package seeders populates a fresh database with a starter catalog and
// an admin account.
package seeders

import (
	"context"
	"fmt"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/pkg/auth"
	"github.com/pizzanova/backend/pkg/logger"
)

var catalog = []models.Product{
	{Name: "Margherita", Description: "Tomato, mozzarella, fresh basil", Category: "pizza", Price: 10.00, IsAvailable: true},
	{Name: "Pepperoni", Description: "Pepperoni, mozzarella, tomato sauce", Category: "pizza", Price: 12.50, IsAvailable: true},
	{Name: "Quattro Formaggi", Description: "Mozzarella, gorgonzola, parmesan, fontina", Category: "pizza", Price: 13.00, IsAvailable: true},
	{Name: "Diavola", Description: "Spicy salami, chilli, mozzarella", Category: "pizza", Price: 12.00, IsAvailable: true},
	{Name: "Calzone", Description: "Folded pizza with ham and ricotta", Category: "pizza", Price: 11.50, IsAvailable: true},
	{Name: "Garlic Bread", Description: "With herb butter", Category: "sides", Price: 4.50, IsAvailable: true},
	{Name: "Caesar Salad", Description: "Romaine, croutons, parmesan", Category: "sides", Price: 6.00, IsAvailable: true},
	{Name: "Tiramisu", Description: "Classic mascarpone dessert", Category: "desserts", Price: 5.50, IsAvailable: true},
	{Name: "Cola 330ml", Description: "", Category: "drinks", Price: 2.00, IsAvailable: true},
	{Name: "Sparkling Water 500ml", Description: "", Category: "drinks", Price: 1.50, IsAvailable: true},
}

// Products inserts the starter catalog. Existing products are left alone;
// the seed only fills an empty collection.
func Products(ctx context.Context) error {
	repo := repositories.NewProductRepository()

	existing, _, err := repo.List(ctx, repositories.ProductFilter{}, 1, 1)
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog already seeded, skipping")
		return nil
	}

	for i := range catalog {
		p := catalog[i]
		if err := repo.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	logger.Info("catalog seeded", "products", len(catalog))
	return nil
}

// Admin creates an admin account with the given credentials.
func Admin(ctx context.Context, name, email, password string) error {
	repo := repositories.NewUserRepository()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{
		Name:       name,
		Email:      email,
		Password:   hash,
		Role:       models.RoleAdmin,
		IsVerified: true,
	}
	if err := repo.Create(ctx, &user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin created", "email", email)
	return nil
}
