package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

type FriendInvitation struct {
	ID         string           `json:"id" bson:"_id,omitempty"`
	FromUserID string           `json:"fromUserId" bson:"fromUserId"`
	Code       string           `json:"code" bson:"code"`
	Email      string           `json:"email" bson:"email"`
	Status     InvitationStatus `json:"status" bson:"status"`
	CreatedAt  *time.Time       `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

func (i *FriendInvitation) IsPending() bool {
	return i.Status == InvitationPending
}
