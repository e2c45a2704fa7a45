package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_CanDeleteMessage(t *testing.T) {
	r := NewResolver()

	assert.True(t, r.CanDeleteMessage("sender", "sender", "owner"))
	assert.True(t, r.CanDeleteMessage("owner", "sender", "owner"))
	assert.False(t, r.CanDeleteMessage("bystander", "sender", "owner"))
}

func TestResolver_CanDeleteLink(t *testing.T) {
	r := NewResolver()

	assert.True(t, r.CanDeleteLink("creator", "creator", "owner"))
	assert.True(t, r.CanDeleteLink("owner", "creator", "owner"))
	assert.False(t, r.CanDeleteLink("bystander", "creator", "owner"))
}

func TestResolver_CanManageMembers(t *testing.T) {
	r := NewResolver()

	assert.True(t, r.CanManageMembers("owner", "owner"))
	assert.False(t, r.CanManageMembers("member", "owner"))
}

func TestResolver_CanViewProject(t *testing.T) {
	r := NewResolver()

	members := []string{"owner", "member"}
	assert.True(t, r.CanViewProject("member", members))
	assert.True(t, r.CanViewProject("owner", members))
	assert.False(t, r.CanViewProject("stranger", members))
}
