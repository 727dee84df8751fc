package logging

import (
	"log/slog"
	"time"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"
	"gorm.io/gorm"
)

// StartCleanup runs a daily goroutine that removes stale rows: system_logs
// older than 30 days, abandoned pending signups past the retention window,
// and OTP rows whose expiry is past the same window. Abandoned signups would
// otherwise accumulate forever since promotion is the only other delete path.
func StartCleanup(db *gorm.DB, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep(db, retention)
			case <-done:
				return
			}
		}
	}()
}

func sweep(db *gorm.DB, retention time.Duration) {
	logCutoff := time.Now().AddDate(0, 0, -30)
	if result := db.Where("timestamp < ?", logCutoff).Delete(&models.SystemLog{}); result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}

	staleCutoff := time.Now().Add(-retention)
	if result := db.Where("created_at < ?", staleCutoff).Delete(&models.PendingUser{}); result.Error != nil {
		slog.Error("pending signup cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("pending signup cleanup completed", "deleted", result.RowsAffected)
	}

	if result := db.Where("expires_at < ?", staleCutoff).Delete(&models.OtpVerification{}); result.Error != nil {
		slog.Error("otp cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("otp cleanup completed", "deleted", result.RowsAffected)
	}
}
