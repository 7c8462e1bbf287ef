package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func TestRedeemPointsRequestValidate(t *testing.T) {
	valid := RedeemPointsRequest{Points: 100}
	assert.NoError(t, valid.Validate())

	zero := RedeemPointsRequest{Points: 0}
	assert.Error(t, zero.Validate())

	negative := RedeemPointsRequest{Points: -50}
	assert.Error(t, negative.Validate())
}

func TestCreateRewardRequestValidate(t *testing.T) {
	valid := CreateRewardRequest{
		Name:           "Free blowout",
		PointsRequired: 500,
		RewardType:     "special",
		RewardValue:    35,
		MinimumTier:    "silver",
	}
	assert.NoError(t, valid.Validate())

	for _, rt := range []string{"discount", "percentage", "amount"} {
		req := valid
		req.RewardType = rt
		assert.NoError(t, req.Validate())
	}

	badType := valid
	badType.RewardType = "free_service"
	assert.Error(t, badType.Validate())

	badTier := valid
	badTier.MinimumTier = "diamond"
	assert.Error(t, badTier.Validate())

	noTier := valid
	noTier.MinimumTier = ""
	assert.NoError(t, noTier.Validate())
}

func TestAddPointsRequestValidate(t *testing.T) {
	valid := AddPointsRequest{UserID: mustUUID(t), Points: 10}
	assert.NoError(t, valid.Validate())

	nilUser := AddPointsRequest{UserID: uuid.Nil, Points: 10}
	assert.Error(t, nilUser.Validate())
}

func TestHistoryFilterNormalize(t *testing.T) {
	f := HistoryFilter{Limit: 0, Offset: -5}
	f.Normalize()
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = HistoryFilter{Limit: 500, Offset: 40}
	f.Normalize()
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 40, f.Offset)
}

func TestNewAccountResponse(t *testing.T) {
	acc := NewLoyaltyAccount(mustUUID(t))
	resp := NewAccountResponse(acc)
	require.NotNil(t, resp.NextTier)
	assert.Equal(t, TierSilver, *resp.NextTier)

	acc.Tier = TierPlatinum
	resp = NewAccountResponse(acc)
	assert.Nil(t, resp.NextTier)
}
