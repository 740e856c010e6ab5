package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/chatling/chatling/pkg/domain/types"
)

func TestUserIDValidate(t *testing.T) {
	gt.NoError(t, types.UserID("u1").Validate())
	gt.Error(t, types.UserID("").Validate())
}

func TestRole(t *testing.T) {
	gt.S(t, types.RoleUser.String()).Equal("user")
	gt.S(t, types.RoleAgent.String()).Equal("agent")
	gt.S(t, types.RoleSystem.String()).Equal("system")

	gt.NoError(t, types.RoleUser.Validate())
	gt.NoError(t, types.RoleAgent.Validate())
	// System fragments exist only inside prompts
	gt.Error(t, types.RoleSystem.Validate())
	gt.Error(t, types.Role("moderator").Validate())
}

func TestNewSummaryID(t *testing.T) {
	a := types.NewSummaryID()
	b := types.NewSummaryID()
	gt.Value(t, a).NotEqual(b)
	gt.S(t, a.String()).NotEqual("")
}
