package models

import "time"

// Tournament is owned by the event CRUD surface; the settlement engine only
// reads its organizer and schedule.
type Tournament struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	OrganizerID uint      `gorm:"not null;index" json:"organizer_id"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	Status      string    `gorm:"not null;default:'active'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	TournamentID    uint      `gorm:"not null;index" json:"tournament_id"`
	Name            string    `gorm:"not null" json:"name"`
	EntryFee        int64     `gorm:"not null;default:0" json:"entry_fee"`
	MaxParticipants int       `gorm:"not null;default:0" json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
