package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/app/repositories"
	"github.com/shashiranjanraj/sehatly/config"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// sehatly db:seed — load a starter catalogue and incompatibility pairs.
var seedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Seed the database with a starter catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := database.Connect(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		medicines := repositories.NewMedicineRepository()
		created := 0
		for _, med := range seedMedicines() {
			ok, err := medicines.Upsert(ctx, med)
			if err != nil {
				return fmt.Errorf("seed medicine %q: %w", med.Name, err)
			}
			if ok {
				created++
			}
		}
		fmt.Printf("Catalogue seeded: %d new, %d updated.\n", created, len(seedMedicines())-created)

		pairs := repositories.NewIncompatibleRepository()
		existing, err := pairs.All(ctx)
		if err != nil {
			return fmt.Errorf("load incompatibility pairs: %w", err)
		}
		seen := make(map[[2]string]bool, len(existing))
		for _, p := range existing {
			a, b := strings.ToLower(p.DrugA), strings.ToLower(p.DrugB)
			seen[[2]string{a, b}] = true
			seen[[2]string{b, a}] = true
		}

		added := 0
		for _, p := range seedPairs() {
			a, b := strings.ToLower(p.DrugA), strings.ToLower(p.DrugB)
			if seen[[2]string{a, b}] {
				continue
			}
			if err := pairs.Create(ctx, &p); err != nil {
				return fmt.Errorf("seed pair %s/%s: %w", p.DrugA, p.DrugB, err)
			}
			seen[[2]string{a, b}] = true
			seen[[2]string{b, a}] = true
			added++
		}
		fmt.Printf("Incompatibility pairs seeded: %d new.\n", added)
		return nil
	},
}

func seedMedicines() []models.Medicine {
	now := time.Now()
	return []models.Medicine{
		{Name: "Paracetamol 500mg", Brand: "Panadol", Description: "Pain and fever relief", Price: 120, StockQuantity: 500, AddedAt: now},
		{Name: "Ibuprofen 400mg", Brand: "Brufen", Description: "Anti-inflammatory painkiller", Price: 180, Discount: 10, StockQuantity: 300, AddedAt: now},
		{Name: "Aspirin 75mg", Brand: "Disprin", Description: "Low-dose blood thinner", Price: 90, StockQuantity: 400, AddedAt: now},
		{Name: "Amoxicillin 500mg", Brand: "Amoxil", Description: "Broad-spectrum antibiotic", Price: 350, StockQuantity: 200, ReqPrescription: true, AddedAt: now},
		{Name: "Warfarin 5mg", Brand: "Coumadin", Description: "Oral anticoagulant", Price: 420, StockQuantity: 150, ReqPrescription: true, AddedAt: now},
		{Name: "Metformin 500mg", Brand: "Glucophage", Description: "Type 2 diabetes control", Price: 250, StockQuantity: 350, ReqPrescription: true, AddedAt: now},
		{Name: "Cetirizine 10mg", Brand: "Zyrtec", Description: "Antihistamine for allergies", Price: 150, Discount: 5, StockQuantity: 600, AddedAt: now},
		{Name: "Omeprazole 20mg", Brand: "Losec", Description: "Acid reflux treatment", Price: 280, StockQuantity: 250, AddedAt: now},
	}
}

func seedPairs() []models.Incompatible {
	return []models.Incompatible{
		{DrugA: "Aspirin 75mg", DrugB: "Warfarin 5mg"},
		{DrugA: "Ibuprofen 400mg", DrugB: "Aspirin 75mg"},
		{DrugA: "Ibuprofen 400mg", DrugB: "Warfarin 5mg"},
	}
}
