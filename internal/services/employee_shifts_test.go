package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/staffmanager/internal/entities"
)

func TestEmployeeShiftService_LinkTwice(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEmployeeShiftService(db)
	ctx := context.Background()
	emp := createEmployee(t, db, "Eve")
	shift := createShift(t, db, time.Now(), 8*time.Hour)

	link, err := svc.Link(ctx, emp.ID, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, emp.ID, link.EmployeeID)
	require.NotNil(t, link.Employee)
	assert.Equal(t, "Eve", link.Employee.FirstName)

	_, err = svc.Link(ctx, emp.ID, shift.ID)
	assert.ErrorIs(t, err, ErrDuplicateLink)
	assert.ErrorIs(t, err, ErrConflict)

	var count int64
	require.NoError(t, db.Model(&entities.EmployeeShift{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEmployeeShiftService_LinkInvalidIDs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEmployeeShiftService(db)
	ctx := context.Background()
	emp := createEmployee(t, db, "Eve")
	shift := createShift(t, db, time.Now(), time.Hour)

	tests := []struct {
		name       string
		employeeID uint
		shiftID    uint
	}{
		{"zero employee", 0, shift.ID},
		{"zero shift", emp.ID, 0},
		{"unknown employee", 999, shift.ID},
		{"unknown shift", emp.ID, 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Link(ctx, tt.employeeID, tt.shiftID)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestEmployeeShiftService_Unlink(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEmployeeShiftService(db)
	ctx := context.Background()
	emp := createEmployee(t, db, "Eve")
	shift := createShift(t, db, time.Now(), time.Hour)
	other := createShift(t, db, time.Now().Add(24*time.Hour), time.Hour)

	_, err := svc.Link(ctx, emp.ID, shift.ID)
	require.NoError(t, err)

	t.Run("missing pair leaves table unchanged", func(t *testing.T) {
		removed, err := svc.Unlink(ctx, emp.ID, other.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		links, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})

	t.Run("existing pair", func(t *testing.T) {
		removed, err := svc.Unlink(ctx, emp.ID, shift.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		links, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}

func TestEmployeeShiftService_RawCRUDEnforcesUniqueness(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEmployeeShiftService(db)
	ctx := context.Background()
	emp := createEmployee(t, db, "Eve")
	first := createShift(t, db, time.Now(), time.Hour)
	second := createShift(t, db, time.Now().Add(2*time.Hour), time.Hour)

	a, err := svc.Create(ctx, &entities.EmployeeShift{EmployeeID: emp.ID, ShiftID: first.ID})
	require.NoError(t, err)
	b, err := svc.Create(ctx, &entities.EmployeeShift{EmployeeID: emp.ID, ShiftID: second.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &entities.EmployeeShift{EmployeeID: emp.ID, ShiftID: first.ID})
	assert.ErrorIs(t, err, ErrDuplicateLink)

	_, err = svc.Update(ctx, b.ID, &entities.EmployeeShift{ID: b.ID, EmployeeID: emp.ID, ShiftID: first.ID})
	assert.ErrorIs(t, err, ErrDuplicateLink)

	same, err := svc.Update(ctx, a.ID, &entities.EmployeeShift{ID: a.ID, EmployeeID: emp.ID, ShiftID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, uint(2), same.Version)
}

func TestEmployeeShiftService_Projections(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEmployeeShiftService(db)
	ctx := context.Background()
	eve := createEmployee(t, db, "Eve")
	bob := createEmployee(t, db, "Bob")
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	morning := createShift(t, db, start, 4*time.Hour)
	evening := createShift(t, db, start.Add(8*time.Hour), 4*time.Hour)

	for _, pair := range [][2]uint{{eve.ID, morning.ID}, {bob.ID, morning.ID}, {eve.ID, evening.ID}} {
		_, err := svc.Link(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	staff, err := svc.EmployeesInShift(ctx, morning.ID)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, entities.EmployeeSummary{ID: bob.ID, FirstName: "Bob", LastName: "Jones", Email: "Bob@library.test", Role: "Librarian"}, staff[0])

	shifts, err := svc.ShiftsForEmployee(ctx, eve.ID)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, morning.ID, shifts[0].ID)
	assert.True(t, shifts[0].StartDateTime.Equal(start))
	assert.Equal(t, evening.ID, shifts[1].ID)
}

func TestEmployeeShiftService_ShiftsForEmployeeAcrossOffsets(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEmployeeShiftService(db)
	ctx := context.Background()
	eve := createEmployee(t, db, "Eve")

	// 09:00+05:00 is 04:00 UTC and sorts before 08:00Z, though its text does not.
	plus5 := time.FixedZone("UTC+5", 5*60*60)
	late := createShift(t, db, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 2*time.Hour)
	early := createShift(t, db, time.Date(2024, 1, 1, 9, 0, 0, 0, plus5), 2*time.Hour)
	tie := createShift(t, db, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), time.Hour)

	for _, shift := range []*entities.Shift{tie, late, early} {
		_, err := svc.Link(ctx, eve.ID, shift.ID)
		require.NoError(t, err)
	}

	shifts, err := svc.ShiftsForEmployee(ctx, eve.ID)
	require.NoError(t, err)
	got := make([]uint, 0, len(shifts))
	for _, s := range shifts {
		got = append(got, s.ID)
	}
	assert.Equal(t, []uint{early.ID, late.ID, tie.ID}, got)
}
