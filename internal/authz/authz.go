// Package authz holds the pure authorization decisions for project-scoped
// entities. A Resolver performs no I/O; callers load the records and pass the
// relevant identities in.
package authz

import "slices"

type Resolver struct{}

func NewResolver() Resolver {
	return Resolver{}
}

// CanDeleteMessage permits the message sender or the project owner.
func (Resolver) CanDeleteMessage(callerID, senderID, ownerID string) bool {
	return callerID == senderID || callerID == ownerID
}

// CanDeleteLink permits the link creator or the project owner.
func (Resolver) CanDeleteLink(callerID, creatorID, ownerID string) bool {
	return callerID == creatorID || callerID == ownerID
}

// CanManageMembers permits only the project owner to add members or send
// invitations.
func (Resolver) CanManageMembers(callerID, ownerID string) bool {
	return callerID == ownerID
}

// CanViewProject permits any project member.
func (Resolver) CanViewProject(callerID string, memberIDs []string) bool {
	return slices.Contains(memberIDs, callerID)
}
