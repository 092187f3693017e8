package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/vclass"
)

// Sentinel results of the transactional admission path.
var (
	ErrCapacityExceeded = errors.New("parking capacity exceeded")
	ErrDuplicateEntry   = errors.New("vehicle already has an active entry")
)

// ReleaseResult reports what a completed release removed, plus the occupancy
// counts observed inside the transaction (used to decide whether the release
// freed up a previously-full pool).
type ReleaseResult struct {
	Out               *model.VehicleOut
	ActiveBefore      int64 // all active records, including the released one
	ActiveBeforeClass int64 // active records in the released vehicle's class
}

// Ledger defines the persistence operations for vehicle occupancy records.
type Ledger interface {
	DB() *gorm.DB
	FindDriver(ctx context.Context, documentID string) (*model.Driver, error)
	FindActiveByPlate(ctx context.Context, plate string) (*model.VehicleIn, error)
	CountActive(ctx context.Context, class vclass.Class, partitioned bool) (int64, error)
	Admit(ctx context.Context, rec *model.VehicleIn, limit int, partitioned bool) error
	Release(ctx context.Context, plate, timeOut string) (*ReleaseResult, error)
	HistoryByDate(ctx context.Context, date string) ([]model.ParkingLogEntry, error)
}

// gormLedger implements the Ledger interface using GORM.
type gormLedger struct {
	db *gorm.DB
}

// NewGormLedger creates a new GORM-backed ledger.
func NewGormLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) DB() *gorm.DB {
	return l.db
}

// FindDriver looks up a registered owner by document ID.
func (l *gormLedger) FindDriver(ctx context.Context, documentID string) (*model.Driver, error) {
	var driver model.Driver
	if err := l.db.WithContext(ctx).Where("document_id = ?", documentID).First(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

// FindActiveByPlate returns the active occupancy record for a plate, or
// gorm.ErrRecordNotFound if the vehicle is not currently parked.
func (l *gormLedger) FindActiveByPlate(ctx context.Context, plate string) (*model.VehicleIn, error) {
	var rec model.VehicleIn
	if err := l.db.WithContext(ctx).Where("plate_number = ?", plate).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountActive returns the current occupancy of the given partition.
func (l *gormLedger) CountActive(ctx context.Context, class vclass.Class, partitioned bool) (int64, error) {
	q := l.db.WithContext(ctx).Model(&model.VehicleIn{})
	if partitioned {
		q = q.Where("vehicle_class = ?", class)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// maxAdmitRetries bounds the serialization-conflict retry loop.
const maxAdmitRetries = 3

// Admit atomically re-checks capacity and the duplicate-plate constraint, then
// creates the active record together with its history entry. The whole
// check-and-act sequence runs in one serializable transaction so two
// concurrent admissions cannot both take the last slot; the unique plate index
// is a second line of defense against double entry.
func (l *gormLedger) Admit(ctx context.Context, rec *model.VehicleIn, limit int, partitioned bool) error {
	var err error
	for attempt := 0; attempt < maxAdmitRetries; attempt++ {
		err = l.admitOnce(ctx, rec, limit, partitioned)
		if !isRetryable(err) {
			return err
		}
	}
	return err
}

func (l *gormLedger) admitOnce(ctx context.Context, rec *model.VehicleIn, limit int, partitioned bool) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		countQ := tx.Model(&model.VehicleIn{})
		if partitioned {
			countQ = countQ.Where("vehicle_class = ?", rec.VehicleClass)
		}
		var occupied int64
		if err := countQ.Count(&occupied).Error; err != nil {
			return fmt.Errorf("failed to count active vehicles: %w", err)
		}
		if occupied >= int64(limit) {
			return ErrCapacityExceeded
		}

		var existing int64
		if err := tx.Model(&model.VehicleIn{}).
			Where("plate_number = ?", rec.PlateNumber).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check for duplicate entry: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateEntry
		}

		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEntry
			}
			return fmt.Errorf("failed to create active record for %s: %w", rec.PlateNumber, err)
		}

		logEntry := model.ParkingLogEntry{
			TransactionID: rec.TransactionID,
			PlateNumber:   rec.PlateNumber,
			VehicleOwner:  rec.VehicleOwner,
			ContactNumber: rec.ContactNumber,
			UserType:      rec.UserType,
			VehicleType:   rec.VehicleType,
			VehicleClass:  rec.VehicleClass,
			VehicleColor:  rec.VehicleColor,
			EntryDate:     rec.EntryDate,
			TimeIn:        rec.TimeIn,
			TimeOut:       nil,
		}
		if err := tx.Create(&logEntry).Error; err != nil {
			return fmt.Errorf("failed to create history entry for %s: %w", rec.TransactionID, err)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// Release removes the active record for a plate, archives it with the exit
// time, and patches the history entry. Returns gorm.ErrRecordNotFound when the
// plate has no active record; in that case nothing is mutated.
func (l *gormLedger) Release(ctx context.Context, plate, timeOut string) (*ReleaseResult, error) {
	var result ReleaseResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.VehicleIn
		if err := tx.Where("plate_number = ?", plate).First(&rec).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.VehicleIn{}).Count(&result.ActiveBefore).Error; err != nil {
			return fmt.Errorf("failed to count active vehicles: %w", err)
		}
		if err := tx.Model(&model.VehicleIn{}).
			Where("vehicle_class = ?", rec.VehicleClass).
			Count(&result.ActiveBeforeClass).Error; err != nil {
			return fmt.Errorf("failed to count active vehicles in class %s: %w", rec.VehicleClass, err)
		}

		res := tx.Delete(&model.VehicleIn{}, "transaction_id = ?", rec.TransactionID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete active record %s: %w", rec.TransactionID, res.Error)
		}
		if res.RowsAffected == 0 {
			// A rival release removed the record between our read and the
			// delete. Exactly one exit settles a stay.
			return gorm.ErrRecordNotFound
		}

		out := model.VehicleOut{
			TransactionID: rec.TransactionID,
			PlateNumber:   rec.PlateNumber,
			VehicleOwner:  rec.VehicleOwner,
			ContactNumber: rec.ContactNumber,
			UserType:      rec.UserType,
			VehicleType:   rec.VehicleType,
			VehicleClass:  rec.VehicleClass,
			VehicleColor:  rec.VehicleColor,
			EntryDate:     rec.EntryDate,
			TimeIn:        rec.TimeIn,
			TimeOut:       timeOut,
		}
		if err := tx.Create(&out).Error; err != nil {
			return fmt.Errorf("failed to archive record %s: %w", rec.TransactionID, err)
		}

		if err := tx.Model(&model.ParkingLogEntry{}).
			Where("transaction_id = ?", rec.TransactionID).
			Update("time_out", timeOut).Error; err != nil {
			return fmt.Errorf("failed to patch history entry %s: %w", rec.TransactionID, err)
		}

		result.Out = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// HistoryByDate returns all history entries whose entry date exactly matches
// the given facility-local calendar day.
func (l *gormLedger) HistoryByDate(ctx context.Context, date string) ([]model.ParkingLogEntry, error) {
	var entries []model.ParkingLogEntry
	if err := l.db.WithContext(ctx).
		Where("entry_date = ?", date).
		Order("time_in").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// isRetryable reports whether an admission transaction failed due to a
// serialization conflict (postgres) or a locked database (sqlite) and should
// be re-run from the top.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
