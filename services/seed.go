package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
)

var sampleAdvertisements = []models.Advertisement{
	{
		Title:       "Unlimited Backstage Wi-Fi",
		Description: "Keep every rehearsal streamed live with enterprise-grade connectivity, available across all jam rooms.",
		PhotoURL:    "https://images.pexels.com/photos/1105666/pexels-photo-1105666.jpeg",
	},
	{
		Title:       "Glow Tour Self-Care Booths",
		Description: "Recharge between sets with guided breathwork, on-call physio, and a calming lounge curated for touring artists.",
		PhotoURL:    "https://images.pexels.com/photos/257904/pexels-photo-257904.jpeg",
	},
	{
		Title:       "Analog Dreams Showcase",
		Description: "Step into a retro-futuristic soundscape featuring custom vinyl presses and modular synth playgrounds.",
		PhotoURL:    "https://images.pexels.com/photos/1540406/pexels-photo-1540406.jpeg",
	},
}

// SeedAdvertisements inserts the sample advertisements that are missing,
// matched by photo URL. It returns how many rows were created and skipped.
func SeedAdvertisements(ctx context.Context, db *gorm.DB) (created, skipped int, err error) {
	for _, sample := range sampleAdvertisements {
		ad := sample
		res := db.WithContext(ctx).Where(models.Advertisement{PhotoURL: ad.PhotoURL}).FirstOrCreate(&ad)
		if res.Error != nil {
			return created, skipped, res.Error
		}
		if res.RowsAffected > 0 {
			created++
		} else {
			skipped++
		}
	}
	return created, skipped, nil
}
