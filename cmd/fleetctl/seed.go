package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleett/fleett-api/internal/config"
	"github.com/fleett/fleett-api/internal/database"
	"github.com/fleett/fleett-api/internal/model"
	"github.com/fleett/fleett-api/internal/repository"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@fleett.local", "email for the seeded admin account")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for the seeded admin account (required)")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed an admin user and a demo fleet",
	Long:  "Inserts an ADMIN account and a handful of demo vehicles. Existing rows are left alone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedAdminPassword == "" {
			return errors.New("--admin-password is required")
		}
		cfg := config.Load()
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer func() { _ = db.Close() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		users := repository.NewUserRepo(db)
		if _, err := users.Create(ctx, seedAdminEmail, seedAdminPassword, model.RoleAdmin, cfg.BcryptCost); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				fmt.Printf("admin %s already exists, skipping\n", seedAdminEmail)
			} else {
				return fmt.Errorf("seed admin: %w", err)
			}
		} else {
			fmt.Printf("admin %s created\n", seedAdminEmail)
		}

		vehicles := repository.NewVehicleRepo(db)
		demo := []model.Vehicle{
			{Make: "Bentley", Model: "Continental GT", Year: 2023, Category: "PETROL", RegistrationNumber: "FLT-001", PricePerDayCents: 95000},
			{Make: "Rolls-Royce", Model: "Ghost", Year: 2024, Category: "PETROL", RegistrationNumber: "FLT-002", PricePerDayCents: 140000},
			{Make: "Porsche", Model: "Taycan Turbo S", Year: 2024, Category: "ELECTRIC", RegistrationNumber: "FLT-003", PricePerDayCents: 88000},
			{Make: "Mercedes-Benz", Model: "S 580e", Year: 2023, Category: "HYBRID", RegistrationNumber: "FLT-004", PricePerDayCents: 62000},
			{Make: "Range Rover", Model: "Autobiography", Year: 2022, Category: "DIESEL", RegistrationNumber: "FLT-005", PricePerDayCents: 54000},
		}
		seeded := 0
		for i := range demo {
			if err := vehicles.Create(ctx, &demo[i]); err != nil {
				// Duplicate registration means this row was seeded before.
				continue
			}
			seeded++
		}
		fmt.Printf("%d vehicles seeded\n", seeded)
		return nil
	},
}
