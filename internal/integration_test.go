package internal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/admission"
	"parking-gate-backend/internal/db"
	"parking-gate-backend/internal/ledger"
	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/vclass"
)

// TestParkingLifecycle simulates the entire lifecycle of a vehicle's stay, from
// entry to exit, and verifies the database state at each step.
func TestParkingLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. Setup an in-memory SQLite database for testing.
	dsn := fmt.Sprintf("file:lifecycle-%d?mode=memory&cache=shared", time.Now().UnixNano())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	// Run database migrations.
	assert.NoError(t, db.Migrate(testDB))

	// 2. Instantiate the ledger and the admission controller.
	vehicleLedger := ledger.NewGormLedger(testDB)
	pool := admission.NewCapacityPool(config.ParkingConfig{Capacity: 2})
	controller := admission.NewController(vehicleLedger, pool, time.UTC, nil, nil)

	// 3. Pre-populate the database with a registered driver.
	driver := model.Driver{
		DocumentID:  "D-1001",
		FirstName:   "Juan",
		LastName:    "Dela Cruz",
		PlateNumber: "ABC123",
		VehicleType: "car",
	}
	assert.NoError(t, testDB.Create(&driver).Error)

	ctx := context.Background()
	today := time.Now().UTC().Format("2006-01-02")
	var transactionID string

	// --- Cycle 1: Vehicle Enters ---
	t.Run("Cycle 1: Vehicle Enters", func(t *testing.T) {
		// A validation round-trip first: the driver is known and outside.
		validated, err := controller.Validate(ctx, "D-1001")
		assert.NoError(t, err)
		assert.Equal(t, "enter", validated.Action, "A vehicle outside should be told to enter")

		admitted, err := controller.Admit(ctx, admission.VehicleData{
			PlateNumber: driver.PlateNumber,
			FirstName:   driver.FirstName,
			LastName:    driver.LastName,
			VehicleType: driver.VehicleType,
		})
		assert.NoError(t, err)
		transactionID = admitted.TransactionID

		// Assertions for Cycle 1:
		var active model.VehicleIn
		err = testDB.Where("plate_number = ?", "ABC123").First(&active).Error
		assert.NoError(t, err, "Expected to find one record in vehicles_in")
		assert.Equal(t, transactionID, active.TransactionID, "TransactionID should match")
		assert.Equal(t, string(vclass.FourWheel), active.VehicleClass, "A car should be classified four-wheel")
		assert.Equal(t, today, active.EntryDate, "EntryDate should be today")

		var logEntry model.ParkingLogEntry
		err = testDB.Where("transaction_id = ?", transactionID).First(&logEntry).Error
		assert.NoError(t, err, "Expected an open history entry for the stay")
		assert.Nil(t, logEntry.TimeOut, "The history entry should have no exit time yet")

		var outCount int64
		testDB.Model(&model.VehicleOut{}).Count(&outCount)
		assert.Equal(t, int64(0), outCount, "vehicles_out should be empty while the vehicle is inside")
	})

	// --- Cycle 2: Vehicle Exits ---
	t.Run("Cycle 2: Vehicle Exits", func(t *testing.T) {
		// The validation round-trip now resolves to an exit.
		validated, err := controller.Validate(ctx, "D-1001")
		assert.NoError(t, err)
		assert.Equal(t, "exit", validated.Action, "A parked vehicle should be told to exit")

		released, err := controller.Release(ctx, "ABC123")
		assert.NoError(t, err)
		assert.Equal(t, transactionID, released.TransactionID, "The release must settle the same stay")

		// Assertions for Cycle 2:
		var activeCount int64
		testDB.Model(&model.VehicleIn{}).Where("plate_number = ?", "ABC123").Count(&activeCount)
		assert.Equal(t, int64(0), activeCount, "vehicles_in should be empty")

		var archived model.VehicleOut
		err = testDB.Where("transaction_id = ?", transactionID).First(&archived).Error
		assert.NoError(t, err, "Expected the stay to be archived in vehicles_out")
		assert.Equal(t, "ABC123", archived.PlateNumber)
		assert.NotEmpty(t, archived.TimeOut, "The archive record should carry the exit time")

		var logEntry model.ParkingLogEntry
		err = testDB.Where("transaction_id = ?", transactionID).First(&logEntry).Error
		assert.NoError(t, err)
		assert.NotNil(t, logEntry.TimeOut, "The history entry should be patched with the exit time")

		history, err := controller.History(ctx, today)
		assert.NoError(t, err)
		assert.Len(t, history.Entries, 1, "The day's history should hold exactly one stay")
	})

	// --- Cycle 3: Slot Is Reusable ---
	t.Run("Cycle 3: Slot Is Reusable", func(t *testing.T) {
		_, err := controller.Admit(ctx, admission.VehicleData{
			PlateNumber: "ABC123",
			VehicleType: "car",
		})
		assert.NoError(t, err, "A released plate should be admittable again")

		history, err := controller.History(ctx, today)
		assert.NoError(t, err)
		assert.Len(t, history.Entries, 2, "The second stay should append a second history entry")
	})
}

// TestCapacityScenarios covers edge cases around the admission limit.
func TestCapacityScenarios(t *testing.T) {
	setupTest := func(parking config.ParkingConfig) (*gorm.DB, *admission.Controller, func()) {
		dsn := fmt.Sprintf("file:capacity-%d?mode=memory&cache=shared", time.Now().UnixNano())
		testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
		assert.NoError(t, err)
		sqlDB, _ := testDB.DB()
		sqlDB.SetMaxOpenConns(1)

		assert.NoError(t, db.Migrate(testDB))

		vehicleLedger := ledger.NewGormLedger(testDB)
		controller := admission.NewController(vehicleLedger, admission.NewCapacityPool(parking), time.UTC, nil, nil)
		return testDB, controller, func() { sqlDB.Close() }
	}

	t.Run("Full Facility Rejects Until A Slot Frees", func(t *testing.T) {
		_, controller, cleanup := setupTest(config.ParkingConfig{Capacity: 1})
		defer cleanup()
		ctx := context.Background()

		_, err := controller.Admit(ctx, admission.VehicleData{PlateNumber: "AAA111", VehicleType: "car"})
		assert.NoError(t, err)

		_, err = controller.Admit(ctx, admission.VehicleData{PlateNumber: "BBB222", VehicleType: "car"})
		assert.ErrorIs(t, err, ledger.ErrCapacityExceeded, "A full facility must reject new entries")

		_, err = controller.Release(ctx, "AAA111")
		assert.NoError(t, err)

		_, err = controller.Admit(ctx, admission.VehicleData{PlateNumber: "BBB222", VehicleType: "car"})
		assert.NoError(t, err, "The freed slot should admit the waiting vehicle")
	})

	t.Run("Duplicate Plate Never Consumes A Slot", func(t *testing.T) {
		testDB, controller, cleanup := setupTest(config.ParkingConfig{Capacity: 2})
		defer cleanup()
		ctx := context.Background()

		_, err := controller.Admit(ctx, admission.VehicleData{PlateNumber: "AAA111", VehicleType: "car"})
		assert.NoError(t, err)

		_, err = controller.Admit(ctx, admission.VehicleData{PlateNumber: "AAA111", VehicleType: "car"})
		assert.ErrorIs(t, err, ledger.ErrDuplicateEntry)

		var activeCount int64
		testDB.Model(&model.VehicleIn{}).Count(&activeCount)
		assert.Equal(t, int64(1), activeCount, "The rejected duplicate must not occupy a slot")

		_, err = controller.Admit(ctx, admission.VehicleData{PlateNumber: "BBB222", VehicleType: "car"})
		assert.NoError(t, err, "The remaining slot stays available for a distinct plate")
	})

	t.Run("Partitioned Classes Are Independent", func(t *testing.T) {
		_, controller, cleanup := setupTest(config.ParkingConfig{
			Capacity:          10,
			TwoWheelCapacity:  1,
			FourWheelCapacity: 1,
		})
		defer cleanup()
		ctx := context.Background()

		_, err := controller.Admit(ctx, admission.VehicleData{PlateNumber: "MOTO1", VehicleType: "motorcycle"})
		assert.NoError(t, err)

		_, err = controller.Admit(ctx, admission.VehicleData{PlateNumber: "MOTO2", VehicleType: "motorcycle"})
		assert.ErrorIs(t, err, ledger.ErrCapacityExceeded, "The two-wheel partition is full")

		_, err = controller.Admit(ctx, admission.VehicleData{PlateNumber: "CAR001", VehicleType: "car"})
		assert.NoError(t, err, "The four-wheel partition has its own budget")
	})
}
