package validations

import (
	"context"
	"testing"
	"time"

	domainCast "github.com/castline/castline/domains/cast"
	domainUser "github.com/castline/castline/domains/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScheduleCast(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	valid := domainCast.ScheduleRequest{Content: "gm", ScheduledAt: future}
	require.NoError(t, ValidateScheduleCast(ctx, valid))

	withPriority := valid
	withPriority.Priority = "HIGH"
	assert.NoError(t, ValidateScheduleCast(ctx, withPriority))

	missingContent := valid
	missingContent.Content = ""
	assert.Error(t, ValidateScheduleCast(ctx, missingContent))

	missingTime := valid
	missingTime.ScheduledAt = time.Time{}
	assert.Error(t, ValidateScheduleCast(ctx, missingTime))

	badPriority := valid
	badPriority.Priority = "URGENT"
	assert.Error(t, ValidateScheduleCast(ctx, badPriority))

	badMedia := valid
	badMedia.MediaURLs = []string{"not a url"}
	assert.Error(t, ValidateScheduleCast(ctx, badMedia))
}

func TestValidateUpdateCast(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateUpdateCast(ctx, domainCast.UpdateRequest{}))

	content := "edited"
	assert.NoError(t, ValidateUpdateCast(ctx, domainCast.UpdateRequest{Content: &content}))

	empty := ""
	assert.Error(t, ValidateUpdateCast(ctx, domainCast.UpdateRequest{Content: &empty}))

	badPriority := "URGENT"
	assert.Error(t, ValidateUpdateCast(ctx, domainCast.UpdateRequest{Priority: &badPriority}))

	goodPriority := "LOW"
	assert.NoError(t, ValidateUpdateCast(ctx, domainCast.UpdateRequest{Priority: &goodPriority}))
}

func TestValidateRegisterUser(t *testing.T) {
	ctx := context.Background()

	valid := domainUser.RegisterRequest{
		FID:        194,
		SignerUUID: "7f9460f8-5e29-4f29-8bc9-2b83c1f2a8d1",
	}
	require.NoError(t, ValidateRegisterUser(ctx, valid))

	noFID := valid
	noFID.FID = 0
	assert.Error(t, ValidateRegisterUser(ctx, noFID))

	badSigner := valid
	badSigner.SignerUUID = "nope"
	assert.Error(t, ValidateRegisterUser(ctx, badSigner))

	badPfp := valid
	badPfp.PfpURL = "not a url"
	assert.Error(t, ValidateRegisterUser(ctx, badPfp))
}
