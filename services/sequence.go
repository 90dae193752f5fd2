package services

import (
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
)

// NextMusicianID reserves the next public musician id. Call it inside the
// transaction that creates the musician; ids are never handed out twice,
// even when the musician is later deleted.
func NextMusicianID(tx *gorm.DB) (uint, error) {
	var highest uint
	if err := tx.Model(&models.Musician{}).
		Select("COALESCE(MAX(musician_id), 0)").
		Scan(&highest).Error; err != nil {
		return 0, err
	}

	counter := models.Counter{}
	if err := tx.Where(models.Counter{Name: models.MusicianSequence}).
		Attrs(models.Counter{Value: highest}).
		FirstOrCreate(&counter).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Counter{}).
		Where("name = ?", models.MusicianSequence).
		Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, err
	}
	if err := tx.First(&counter, "name = ?", models.MusicianSequence).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}
