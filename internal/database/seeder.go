// internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"logiledger-api-server/internal/auth"
	"logiledger-api-server/internal/location"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

const (
	DemoCompanyEmail    = "demo.company@logiledger.in"
	demoCompanyPassword = "demopassword"
)

type demoConsignment struct {
	title       string
	description string
	goodsType   models.GoodsType
	origin      string
	destination string
	weight      float64
	budget      float64
	days        int
}

var demoConsignments = []demoConsignment{
	{
		title:       "Electronics shipment to Delhi",
		description: "Laptops and accessories, fragile, palletised",
		goodsType:   models.GoodsElectronics,
		origin:      "Mumbai, Maharashtra",
		destination: "Delhi, Delhi",
		weight:      1200,
		budget:      45000,
		days:        7,
	},
	{
		title:       "Textile rolls to Bangalore",
		description: "Cotton fabric rolls, keep dry",
		goodsType:   models.GoodsTextiles,
		origin:      "Chennai, Tamil Nadu",
		destination: "Bangalore, Karnataka",
		weight:      800,
		budget:      18000,
		days:        5,
	},
}

// SeedDemoData creates a demo company with two open consignments. It is a
// no-op when the demo company already exists.
func SeedDemoData(ctx context.Context, st store.Store) error {
	_, err := st.Users().GetByEmail(ctx, DemoCompanyEmail)
	if err == nil {
		logrus.Info("Demo company already exists. Seeding skipped.")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	logrus.Info("Demo company not found. Seeding...")
	hashedPassword, err := auth.HashPassword(demoCompanyPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	company := &models.User{
		Name:        "Demo Logistics Buyer",
		Email:       DemoCompanyEmail,
		Password:    hashedPassword,
		Role:        models.RoleCompany,
		CompanyName: "Demo Manufacturing Pvt Ltd",
		Phone:       "+91 98765 43210",
		Location:    location.NormalizeLocation("Mumbai, Maharashtra"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.Users().Create(ctx, company); err != nil {
		return err
	}

	for _, d := range demoConsignments {
		c := &models.Consignment{
			Title:       d.title,
			Description: d.description,
			CompanyID:   company.ID,
			CompanyName: company.DisplayCompany(),
			GoodsType:   d.goodsType,
			Origin:      *location.NormalizeLocation(d.origin),
			Destination: *location.NormalizeLocation(d.destination),
			Weight:      d.weight,
			Budget:      d.budget,
			Deadline:    now.AddDate(0, 0, d.days),
			Status:      models.ConsignmentOpen,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := st.Consignments().Create(ctx, c); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"consignmentId": c.ID.Hex(), "title": c.Title}).Info("Seeded demo consignment")
	}

	logrus.Info("Demo data seeded successfully.")
	return nil
}
