package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
)

type fakePairStore struct {
	pairs []models.Incompatible
}

func (f *fakePairStore) All(context.Context) ([]models.Incompatible, error) {
	return f.pairs, nil
}

func (f *fakePairStore) Create(_ context.Context, pair *models.Incompatible) error {
	f.pairs = append(f.pairs, *pair)
	return nil
}

func incompatibleFixture() *IncompatibleService {
	return NewIncompatibleService(&fakePairStore{pairs: []models.Incompatible{
		{DrugA: "Aspirin", DrugB: "Warfarin"},
		{DrugA: "Ibuprofen", DrugB: "Aspirin"},
	}})
}

func TestCheckFindsConflictingPair(t *testing.T) {
	svc := incompatibleFixture()

	res, err := svc.Check(context.Background(), []string{"Paracetamol", "Aspirin", "Warfarin"})
	require.NoError(t, err)
	assert.True(t, res.Conflict)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, [2]string{"Aspirin", "Warfarin"}, res.Pairs[0])
}

func TestCheckIsSymmetric(t *testing.T) {
	svc := incompatibleFixture()

	// The stored pair is (Aspirin, Warfarin); the cart lists them reversed.
	res, err := svc.Check(context.Background(), []string{"Warfarin", "Aspirin"})
	require.NoError(t, err)
	assert.True(t, res.Conflict)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, [2]string{"Warfarin", "Aspirin"}, res.Pairs[0])
}

func TestCheckIsCaseInsensitive(t *testing.T) {
	svc := incompatibleFixture()

	res, err := svc.Check(context.Background(), []string{"  aspirin ", "WARFARIN"})
	require.NoError(t, err)
	assert.True(t, res.Conflict)
}

func TestCheckFindsMultiplePairs(t *testing.T) {
	svc := incompatibleFixture()

	res, err := svc.Check(context.Background(), []string{"Ibuprofen", "Aspirin", "Warfarin"})
	require.NoError(t, err)
	assert.True(t, res.Conflict)
	assert.Len(t, res.Pairs, 2)
}

func TestCheckShortCartsNeverConflict(t *testing.T) {
	svc := incompatibleFixture()

	for _, cart := range [][]string{nil, {}, {"Aspirin"}} {
		res, err := svc.Check(context.Background(), cart)
		require.NoError(t, err)
		assert.False(t, res.Conflict)
		assert.NotNil(t, res.Pairs)
		assert.Empty(t, res.Pairs)
	}
}

func TestCheckNoConflict(t *testing.T) {
	svc := incompatibleFixture()

	res, err := svc.Check(context.Background(), []string{"Paracetamol", "Cetirizine"})
	require.NoError(t, err)
	assert.False(t, res.Conflict)

	// Clients key off the pairs array, so it is present even when empty.
	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"conflict": false, "pairs": []}`, string(body))
}

func TestAddPairRejectsSelfConflict(t *testing.T) {
	svc := incompatibleFixture()

	_, err := svc.AddPair(context.Background(), AddPairInput{DrugA: "Aspirin", DrugB: " aspirin "})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestAddPairTrimsAndStores(t *testing.T) {
	store := &fakePairStore{}
	svc := NewIncompatibleService(store)

	pair, err := svc.AddPair(context.Background(), AddPairInput{DrugA: " Aspirin ", DrugB: "Warfarin"})
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", pair.DrugA)
	assert.Equal(t, "Warfarin", pair.DrugB)
	require.Len(t, store.pairs, 1)

	res, err := svc.Check(context.Background(), []string{"aspirin", "warfarin"})
	require.NoError(t, err)
	assert.True(t, res.Conflict)
}
