package types

import "time"

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:64;not null"`
	Value string `gorm:"size:256;not null"`
}

// Stat is the single aggregate counters row updated after each verification.
type Stat struct {
	ID              uint8 `gorm:"primaryKey"`
	VideosProcessed uint64
	ClaimsFound     uint64
	ClaimsAccurate  uint64
	UpdatedAt       time.Time
}
