package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/server/internal/model"
)

func TestProfileRepo_GetByAccountID_DecodesDocuments(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewProfileRepo(db)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"personal_info", "medical_info", "created_at", "updated_at"}).AddRow(
		[]byte(`{"name":"Alice","age":30,"deficiencies":["iron"]}`),
		[]byte(`{"bloodPressure":{"systolic":120,"diastolic":80},"sugarLevel":95}`),
		now, now,
	)
	mock.ExpectQuery(`(?s)SELECT\s+personal_info,\s*medical_info.+FROM\s+profiles`).WithArgs(id).WillReturnRows(rows)

	p, err := r.GetByAccountID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, p.AccountID)
	assert.Equal(t, "Alice", p.Personal.Name)
	require.NotNil(t, p.Personal.Age)
	assert.Equal(t, 30, *p.Personal.Age)
	assert.Equal(t, []string{"iron"}, p.Personal.Deficiencies)
	require.NotNil(t, p.Medical.BloodPressure)
	assert.Equal(t, 80.0, p.Medical.BloodPressure.Diastolic)
	require.NotNil(t, p.Medical.SugarLevel)
	assert.Equal(t, 95.0, *p.Medical.SugarLevel)
}

func TestProfileRepo_GetByAccountID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewProfileRepo(db)

	mock.ExpectQuery(`FROM\s+profiles`).WillReturnError(sql.ErrNoRows)
	_, err := r.GetByAccountID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileRepo_Save_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewProfileRepo(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+profiles.+ON\s+CONFLICT\s+\(account_id\)\s+DO\s+UPDATE`).
		WithArgs(id, `{"name":"Alice"}`, `{}`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &model.Profile{AccountID: id, Personal: model.PersonalInfo{Name: "Alice"}}
	require.NoError(t, r.Save(context.Background(), p))
	assert.Equal(t, now, p.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDietPlanRepo_CreateAndLatest(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewDietPlanRepo(db)

	accountID := uuid.New()
	now := time.Now()
	plan := &model.DietPlan{AccountID: accountID, Morning: "oats", Afternoon: "rice", Evening: "salad", Night: "soup"}

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+diet_plans`).
		WithArgs(sqlmock.AnyArg(), accountID, "oats", "rice", "salad", "soup", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	require.NoError(t, r.Create(context.Background(), plan))
	assert.NotEqual(t, uuid.Nil, plan.ID)

	mock.ExpectQuery(`(?s)FROM\s+diet_plans.+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "morning", "afternoon", "evening", "night", "snacks", "diet_type", "created_at"}).
			AddRow(plan.ID.String(), "oats", "rice", "salad", "soup", "", "", now))
	got, err := r.Latest(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, accountID, got.AccountID)
	assert.Equal(t, "soup", got.Night)
}

func TestDietPlanRepo_Latest_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewDietPlanRepo(db)

	mock.ExpectQuery(`FROM\s+diet_plans`).WillReturnError(sql.ErrNoRows)
	_, err := r.Latest(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
