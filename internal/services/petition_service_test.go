package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/bookswap-backend/internal/models"
)

func TestSetPetition_Upserts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana", true)

	_, err := env.petitions.SetPetition(ctx, user.ID, PetitionRequest{ISBN: "ISBN1", Level: 2})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.petitions.SetPetition(ctx, user.ID, PetitionRequest{ISBN: "978-1", Level: 2})
	require.NoError(t, err)
	_, err = env.petitions.SetPetition(ctx, user.ID, PetitionRequest{ISBN: " 978-1 ", Level: 0})
	require.NoError(t, err)

	petitions, err := env.petitions.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, petitions, 1)
	assert.Equal(t, "978-1", petitions[0].ISBN)
	assert.Equal(t, models.PetitionLevelNone, petitions[0].Level)

	byISBN, err := env.petitions.ListForISBN(ctx, "978-1")
	require.NoError(t, err)
	assert.Len(t, byISBN, 1)

	demand, err := env.petitions.DemandForISBN(ctx, "978-1")
	require.NoError(t, err)
	assert.Equal(t, 1, demand.Total)
	assert.Equal(t, map[models.PetitionLevel]int{models.PetitionLevelNone: 1}, demand.ByLevel)
}

func TestDemandForISBN_CountsLevelsWithoutUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, level := range []models.PetitionLevel{models.PetitionLevelHigh, models.PetitionLevelHigh, models.PetitionLevelLow} {
		user := env.createUser(t, fmt.Sprintf("reader%d", i), true)
		_, err := env.petitions.SetPetition(ctx, user.ID, PetitionRequest{ISBN: "978-1", Level: level})
		require.NoError(t, err)
	}
	other := env.createUser(t, "other", true)
	_, err := env.petitions.SetPetition(ctx, other.ID, PetitionRequest{ISBN: "978-2", Level: models.PetitionLevelHigh})
	require.NoError(t, err)

	demand, err := env.petitions.DemandForISBN(ctx, " 978-1 ")
	require.NoError(t, err)
	assert.Equal(t, "978-1", demand.ISBN)
	assert.Equal(t, 3, demand.Total)
	assert.Equal(t, 2, demand.ByLevel[models.PetitionLevelHigh])
	assert.Equal(t, 1, demand.ByLevel[models.PetitionLevelLow])

	data, err := json.Marshal(demand)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "user_id")
}

func TestSetPetition_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.petitions.SetPetition(context.Background(), uuid.New(), PetitionRequest{ISBN: "978-1", Level: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
