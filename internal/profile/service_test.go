package profile_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/server/internal/apperr"
	"github.com/nutricare/server/internal/model"
	"github.com/nutricare/server/internal/profile"
	"github.com/nutricare/server/internal/tests"
)

func newService() (*profile.Service, *tests.ProfileStore) {
	store := tests.NewProfileStore()
	return profile.NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func decodePersonal(t *testing.T, body string) model.PersonalInfoUpdate {
	t.Helper()
	var upd model.PersonalInfoUpdate
	require.NoError(t, json.Unmarshal([]byte(body), &upd))
	return upd
}

func TestGet_CreatesMissingProfile(t *testing.T) {
	svc, store := newService()
	account := &model.Account{ID: uuid.New(), Name: "Alice", Email: "a@x.com", Mobile: "9876543210"}

	view, err := svc.Get(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.Name)
	assert.Equal(t, "9876543210", view.Mobile)
	assert.Equal(t, 1, store.Len())

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "personalInfo")
	assert.Contains(t, doc, "medicalInfo")
	assert.Equal(t, "a@x.com", doc["email"])
}

func TestUpdatePersonal_OnlyTouchesPresentFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.UpdatePersonal(ctx, id, decodePersonal(t, `{"name":"Alice","age":30,"height":165,"sex":"Female"}`))
	require.NoError(t, err)

	got, err := svc.UpdatePersonal(ctx, id, decodePersonal(t, `{"weight":60}`))
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	require.NotNil(t, got.Age)
	assert.Equal(t, 30, *got.Age)
	assert.Equal(t, "female", got.Sex)
	require.NotNil(t, got.Weight)
	assert.Equal(t, 60.0, *got.Weight)

	got, err = svc.UpdatePersonal(ctx, id, decodePersonal(t, `{"age":null}`))
	require.NoError(t, err)
	assert.Nil(t, got.Age, "explicit null clears")
	assert.NotNil(t, got.Height)
}

func TestUpdatePersonal_Validation(t *testing.T) {
	svc, store := newService()
	cases := map[string]string{
		"age":    `{"age":121}`,
		"height": `{"height":-1}`,
		"weight": `{"weight":-0.5}`,
		"sex":    `{"sex":"robot"}`,
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.UpdatePersonal(context.Background(), uuid.New(), decodePersonal(t, body))
			require.Error(t, err)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, field, e.Field)
		})
	}
	assert.Zero(t, store.Len(), "nothing saved on validation failure")
}

func TestUpdateMedical(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id := uuid.New()

	var upd model.MedicalInfoUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"bloodPressure":{"systolic":130,"diastolic":85},"diseases":["diabetes"]}`), &upd))
	got, err := svc.UpdateMedical(ctx, id, upd)
	require.NoError(t, err)
	require.NotNil(t, got.BloodPressure)
	assert.Equal(t, 130.0, got.BloodPressure.Systolic)
	assert.Equal(t, []string{"diabetes"}, got.Diseases)

	upd = model.MedicalInfoUpdate{SugarLevel: model.Some(-3.0)}
	_, err = svc.UpdateMedical(ctx, id, upd)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	upd = model.MedicalInfoUpdate{BloodPressure: model.Some(model.BloodPressure{Systolic: 120, Diastolic: -1})}
	_, err = svc.UpdateMedical(ctx, id, upd)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	p, err := svc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"diabetes"}, p.Medical.Diseases, "failed updates leave stored data alone")
}
