package models

import (
	"time"

	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationSent     InvitationStatus = "sent"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation is directional: for a plain invitation the sender is the company
// owner and the receiver the prospective member; for a join request
// (IsRequest=true) the sender is the prospective member and the receiver the
// company owner.
type Invitation struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	SenderID   uint             `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint             `json:"receiver_id" gorm:"not null;index"`
	CompanyID  uint             `json:"company_id" gorm:"not null;index"`
	IsRequest  bool             `json:"is_request" gorm:"default:false"`
	Status     InvitationStatus `json:"status" gorm:"default:sent;index;size:20"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Sender   User    `json:"sender" gorm:"foreignKey:SenderID"`
	Receiver User    `json:"receiver" gorm:"foreignKey:ReceiverID"`
	Company  Company `json:"company" gorm:"foreignKey:CompanyID"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// IsPending reports whether the invitation still awaits a decision.
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationSent
}

// JoiningUserID resolves which party becomes a member on acceptance.
func (i *Invitation) JoiningUserID() uint {
	if i.IsRequest {
		return i.SenderID
	}
	return i.ReceiverID
}
