package model

import "time"

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

type Invitation struct {
	ID             string           `json:"id"`
	Project        *Project         `json:"project"`
	Sender         *User            `json:"sender"`
	RecipientEmail string           `json:"recipientEmail"`
	Status         InvitationStatus `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
}
