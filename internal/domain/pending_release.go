package domain

import "time"

// PendingMediaRelease records a remote object whose release failed after the
// product stopped referencing it. Rows are retried only by an operator sweep.
type PendingMediaRelease struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	ProductID string    `gorm:"size:36;index" bson:"product_id" json:"product_id"`
	RemoteID  string    `gorm:"size:512;not null;index" bson:"remote_id" json:"remote_id"`
	Reason    string    `gorm:"size:64;not null" bson:"reason" json:"reason"`
	Attempts  int       `gorm:"not null;default:1" bson:"attempts" json:"attempts"`
	LastError string    `gorm:"type:text" bson:"last_error" json:"last_error"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
