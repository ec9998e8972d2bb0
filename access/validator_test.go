package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/sharegate/types"
)

var validateTests = []struct {
	title   string
	record  func() *types.ShareRecord
	wantErr bool
	message string
}{
	{
		"Absent record",
		func() *types.ShareRecord { return nil },
		true,
		"Passed token parameter is not valid",
	},
	{
		"Unsupported item type",
		func() *types.ShareRecord { r := linkShare(); r.ItemType = "calendar"; return r },
		true,
		"Passed token parameter is not valid",
	},
	{
		"Unsupported item type on a protected share",
		func() *types.ShareRecord { r := protectedLinkShare(); r.ItemType = "contact"; return r },
		true,
		"Passed token parameter is not valid",
	},
	{
		"Missing owner",
		func() *types.ShareRecord { r := linkShare(); r.OwnerID = ""; return r },
		true,
		"does not contain all necessary information",
	},
	{
		"Missing source",
		func() *types.ShareRecord { r := linkShare(); r.SourceID = ""; return r },
		true,
		"does not contain all necessary information",
	},
	{
		"Missing item type",
		func() *types.ShareRecord { r := linkShare(); r.ItemType = ""; return r },
		true,
		"No item type set for share id: s9",
	},
	{
		"Valid file share",
		linkShare,
		false,
		"",
	},
	{
		"Valid folder share",
		func() *types.ShareRecord { r := linkShare(); r.ItemType = types.ItemTypeFolder; return r },
		false,
		"",
	},
}

func TestValidateShare(t *testing.T) {
	for _, tt := range validateTests {
		t.Run(tt.title, func(t *testing.T) {
			share, err := ValidateShare(tt.record())
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "s9", share.ShareID())
				return
			}
			require.Error(t, err)
			assert.Nil(t, share)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, KindNotFound, KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateShareDoesNotAliasRecord(t *testing.T) {
	rec := linkShare()
	share, err := ValidateShare(rec)
	require.NoError(t, err)

	rec.OwnerID = "someone-else"
	assert.Equal(t, "u1", share.OwnerID())
}
