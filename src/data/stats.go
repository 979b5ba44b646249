package data

import (
	"log"
	"time"

	"github.com/stake-plus/vidcheck/src/types"
	"gorm.io/gorm"
)

// RecordVerification bumps the aggregate counters after a fresh verification.
func RecordVerification(db *gorm.DB, claimsFound, claimsAccurate int) {
	if db == nil {
		return
	}

	updates := map[string]any{
		"videos_processed": gorm.Expr("videos_processed + 1"),
		"claims_found":     gorm.Expr("claims_found + ?", claimsFound),
		"claims_accurate":  gorm.Expr("claims_accurate + ?", claimsAccurate),
		"updated_at":       time.Now().UTC(),
	}

	res := db.Model(&types.Stat{}).Where("id = ?", 1).Updates(updates)
	if res.Error != nil {
		log.Printf("stats: update failed: %v", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		seed := types.Stat{
			ID:              1,
			VideosProcessed: 1,
			ClaimsFound:     uint64(claimsFound),
			ClaimsAccurate:  uint64(claimsAccurate),
			UpdatedAt:       time.Now().UTC(),
		}
		if err := db.Create(&seed).Error; err != nil {
			log.Printf("stats: seed failed: %v", err)
		}
	}
}

// GetStats returns the aggregate counters row, zeroed when absent.
func GetStats(db *gorm.DB) types.Stat {
	var stat types.Stat
	if db == nil {
		return stat
	}
	if err := db.First(&stat, 1).Error; err != nil {
		return types.Stat{ID: 1}
	}
	return stat
}
