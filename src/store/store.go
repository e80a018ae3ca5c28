package store

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the embedded database holding dedup markers, the forced-video
// singleton, tickets and candidate status. Every operation runs as a single
// statement or transaction so the two engines can interleave safely without
// cross-engine locking. Mutating operations return a success boolean and log
// failures; only Open is fatal to the caller.
type Store struct {
	db *gorm.DB
}

// Open migrates the schema and ensures the forced-video singleton row
// exists. Failure here must abort process startup.
func Open(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&PostedVideo{}, &ForcedVideoRow{}, &Ticket{}, &CandidateStatus{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	singleton := ForcedVideoRow{ID: 1}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&singleton).Error; err != nil {
		return nil, fmt.Errorf("ensure forced_video row: %w", err)
	}

	return &Store{db: db}, nil
}

// ---------------------------------------------------------------- posted videos

// AddPostedVideo records a video ID and reports whether it was new. A
// duplicate is not an error; it simply returns false. The insert is a single
// ON CONFLICT DO NOTHING statement so concurrent scans cannot both win.
func (s *Store) AddPostedVideo(videoID string) bool {
	marker := PostedVideo{VideoID: videoID, PostedAt: time.Now().UTC()}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&marker)
	if res.Error != nil {
		log.Printf("store: add posted video %s: %v", videoID, res.Error)
		return false
	}
	return res.RowsAffected == 1
}

// PurgePostedVideos drops markers older than the retention horizon. Best
// effort: a failed purge is logged and never blocks ingestion.
func (s *Store) PurgePostedVideos(days int) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	if err := s.db.Where("posted_at < ?", cutoff).Delete(&PostedVideo{}).Error; err != nil {
		log.Printf("store: purge posted videos: %v", err)
	}
}

// ---------------------------------------------------------------- forced video

// SetForcedVideo stores a pending override. The deadline is not computed
// here; it starts counting only when the override is actually consumed.
func (s *Store) SetForcedVideo(messageID string, days int) bool {
	updates := map[string]interface{}{
		"message_id":   messageID,
		"days_forced":  days,
		"forced_until": nil,
	}
	if err := s.db.Model(&ForcedVideoRow{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
		log.Printf("store: set forced video: %v", err)
		return false
	}
	return true
}

// ActivateForcedVideo converts a pending override into an active one with
// the given deadline. Called at consumption time.
func (s *Store) ActivateForcedVideo(deadline time.Time) bool {
	updates := map[string]interface{}{
		"days_forced":  nil,
		"forced_until": deadline.UTC(),
	}
	if err := s.db.Model(&ForcedVideoRow{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
		log.Printf("store: activate forced video: %v", err)
		return false
	}
	return true
}

// GetForcedVideo decodes the override row. An active override whose deadline
// has passed is cleared here (lazy expiry), so no sweep task is needed.
// Half-set rows written by older logic decode to None without being acted on.
func (s *Store) GetForcedVideo() Forced {
	var row ForcedVideoRow
	if err := s.db.First(&row, "id = ?", 1).Error; err != nil {
		log.Printf("store: get forced video: %v", err)
		return Forced{}
	}

	if row.MessageID == nil || *row.MessageID == "" {
		return Forced{}
	}

	if row.ForcedUntil != nil {
		if !time.Now().UTC().Before(*row.ForcedUntil) {
			s.ClearForcedVideo()
			return Forced{}
		}
		return Forced{State: ForcedActive, MessageID: *row.MessageID, Deadline: *row.ForcedUntil}
	}

	if row.DaysForced != nil {
		return Forced{State: ForcedPending, MessageID: *row.MessageID, Days: *row.DaysForced}
	}

	// Transitional row: message without days or deadline. Tolerated but
	// never acted upon.
	return Forced{}
}

// ClearForcedVideo nulls the singleton.
func (s *Store) ClearForcedVideo() bool {
	updates := map[string]interface{}{
		"message_id":   nil,
		"days_forced":  nil,
		"forced_until": nil,
	}
	if err := s.db.Model(&ForcedVideoRow{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
		log.Printf("store: clear forced video: %v", err)
		return false
	}
	return true
}

// ---------------------------------------------------------------- candidates

// Candidate returns the durable status row for a message, zero-valued when
// the message has never been seen.
func (s *Store) Candidate(messageID string) CandidateStatus {
	var cs CandidateStatus
	if err := s.db.First(&cs, "message_id = ?", messageID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("store: candidate %s: %v", messageID, err)
		}
		return CandidateStatus{MessageID: messageID}
	}
	return cs
}

// SyncCandidate upserts the validated bit observed on the message's
// reactions, preserving the used flag, and returns the resulting row.
func (s *Store) SyncCandidate(messageID string, validated bool) CandidateStatus {
	var cs CandidateStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cs, "message_id = ?", messageID).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			cs = CandidateStatus{MessageID: messageID, Validated: validated, UpdatedAt: time.Now().UTC()}
			return tx.Create(&cs).Error
		}
		if cs.Validated != validated {
			cs.Validated = validated
			cs.UpdatedAt = time.Now().UTC()
			return tx.Save(&cs).Error
		}
		return nil
	})
	if err != nil {
		log.Printf("store: sync candidate %s: %v", messageID, err)
	}
	return cs
}

// MarkUsed flags a candidate as consumed, creating the row if needed.
func (s *Store) MarkUsed(messageID string) bool {
	cs := CandidateStatus{MessageID: messageID, Used: true, UpdatedAt: time.Now().UTC()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"used": true, "updated_at": time.Now().UTC()}),
	}).Create(&cs).Error
	if err != nil {
		log.Printf("store: mark used %s: %v", messageID, err)
		return false
	}
	return true
}

// ---------------------------------------------------------------- tickets

// AddTicket records an open ticket. Insert-or-ignore: a duplicate name
// cannot practically occur but is handled.
func (s *Store) AddTicket(name, title, authorID, openLogURL string) bool {
	t := Ticket{
		Name:       name,
		CreatedAt:  time.Now().UTC(),
		Title:      title,
		AuthorID:   authorID,
		OpenLogURL: openLogURL,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error; err != nil {
		log.Printf("store: add ticket %s: %v", name, err)
		return false
	}
	return true
}

// GetTicket returns the ticket row by channel name.
func (s *Store) GetTicket(name string) (Ticket, bool) {
	var t Ticket
	if err := s.db.First(&t, "name = ?", name).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("store: get ticket %s: %v", name, err)
		}
		return Ticket{}, false
	}
	return t, true
}

// RemoveTicket deletes the row when the ticket channel is closed.
func (s *Store) RemoveTicket(name string) bool {
	if err := s.db.Delete(&Ticket{}, "name = ?", name).Error; err != nil {
		log.Printf("store: remove ticket %s: %v", name, err)
		return false
	}
	return true
}
