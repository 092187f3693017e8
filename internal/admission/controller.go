package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"parking-gate-backend/internal/ledger"
	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/obs"
	"parking-gate-backend/internal/vclass"
)

// Notifier is told when a release frees a slot in a previously-full partition.
type Notifier interface {
	SlotFreed(class vclass.Class)
}

// VehicleData carries the fields submitted at the entry/exit kiosk.
type VehicleData struct {
	PlateNumber   string `json:"plateNumber"`
	FirstName     string `json:"firstName"`
	MiddleName    string `json:"middleName"`
	LastName      string `json:"lastName"`
	ContactNumber string `json:"contactNumber"`
	UserType      string `json:"userType"`
	VehicleType   string `json:"vehicleType"`
	VehicleColor  string `json:"vehicleColor"`
	// Exiting marks a request that the kiosk already resolved as an exit
	// transition. Such a request never admits: it is reported as a duplicate
	// so the caller proceeds to /api/vehicle-exit. It never touches capacity.
	Exiting bool `json:"status"`
}

// ValidateResult is the outcome of a document-ID lookup.
type ValidateResult struct {
	Message string        `json:"message"`
	Driver  *model.Driver `json:"data"`
	Action  string        `json:"action"` // enter | exit
}

// AdmitResult is the outcome of a successful vehicle entry.
type AdmitResult struct {
	Message       string `json:"message"`
	PlateNumber   string `json:"plateNumber"`
	TransactionID string `json:"transactionId"`
}

// ReleaseResult is the outcome of a successful vehicle exit.
type ReleaseResult struct {
	Message       string `json:"message"`
	PlateNumber   string `json:"plateNumber"`
	TransactionID string `json:"transactionId"`
}

// HistoryResult is the outcome of a history lookup. Empty is a valid result,
// not an error.
type HistoryResult struct {
	Message string                  `json:"message"`
	Entries []model.ParkingLogEntry `json:"data"`
	Empty   bool                    `json:"-"`
}

// Controller orchestrates validate/admit/release/history against the capacity
// pool and the vehicle ledger.
type Controller struct {
	ledger   ledger.Ledger
	pool     *CapacityPool
	loc      *time.Location
	metrics  *obs.Metrics
	notifier Notifier
	now      func() time.Time
}

// NewController creates an admission controller. metrics and notifier may be
// nil. The timezone is the facility's local calendar; timestamps and history
// dates are normalized to it.
func NewController(l ledger.Ledger, pool *CapacityPool, loc *time.Location, metrics *obs.Metrics, notifier Notifier) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{
		ledger:   l,
		pool:     pool,
		loc:      loc,
		metrics:  metrics,
		notifier: notifier,
		now:      time.Now,
	}
}

func (c *Controller) observeLatency(op string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

func (c *Controller) incEntry(result string) {
	if c.metrics != nil {
		c.metrics.EntryTotal.WithLabelValues(result).Inc()
	}
}

func (c *Controller) incExit(result string) {
	if c.metrics != nil {
		c.metrics.ExitTotal.WithLabelValues(result).Inc()
	}
}

// Validate looks up a driver by document ID and suggests the next action based
// on whether the plate currently occupies a slot. Pure read, no mutation.
func (c *Controller) Validate(ctx context.Context, documentID string) (*ValidateResult, error) {
	if documentID == "" {
		return nil, ErrMissingDocumentID
	}
	start := c.now()
	defer c.observeLatency("validate", start)

	driver, err := c.ledger.FindDriver(ctx, documentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no driver for document %s", ErrNotFound, documentID)
	}
	if err != nil {
		return nil, c.internal("validate", err)
	}

	_, err = c.ledger.FindActiveByPlate(ctx, driver.PlateNumber)
	switch {
	case err == nil:
		return &ValidateResult{
			Message: "Vehicle is currently parked. Proceed to exit.",
			Driver:  driver,
			Action:  "exit",
		}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &ValidateResult{
			Message: "Vehicle can enter.",
			Driver:  driver,
			Action:  "enter",
		}, nil
	default:
		return nil, c.internal("validate", err)
	}
}

// Admit checks capacity for the vehicle's class partition, rejects duplicate
// plates, and creates the occupancy record plus its open history entry. The
// capacity check and the writes are one ledger transaction.
func (c *Controller) Admit(ctx context.Context, data VehicleData) (*AdmitResult, error) {
	if data.PlateNumber == "" {
		return nil, ErrMissingPlate
	}
	start := c.now()
	defer c.observeLatency("entry", start)

	if data.Exiting {
		c.incEntry("duplicate")
		return nil, fmt.Errorf("%w: %s is marked as exiting", ledger.ErrDuplicateEntry, data.PlateNumber)
	}

	class := vclass.Classify(data.VehicleType)
	limit, partitioned := c.pool.LimitFor(class)

	now := c.now().In(c.loc)
	rec := &model.VehicleIn{
		TransactionID: fmt.Sprintf("%d-%s", now.UnixMilli(), data.PlateNumber),
		PlateNumber:   data.PlateNumber,
		VehicleOwner:  ownerName(data),
		ContactNumber: data.ContactNumber,
		UserType:      data.UserType,
		VehicleType:   data.VehicleType,
		VehicleClass:  string(class),
		VehicleColor:  data.VehicleColor,
		EntryDate:     now.Format("2006-01-02"),
		TimeIn:        now.Format("3:04:05 PM"),
	}

	err := c.ledger.Admit(ctx, rec, limit, partitioned)
	switch {
	case errors.Is(err, ledger.ErrCapacityExceeded):
		c.incEntry("capacity")
		return nil, err
	case errors.Is(err, ledger.ErrDuplicateEntry):
		c.incEntry("duplicate")
		return nil, err
	case err != nil:
		c.incEntry("error")
		return nil, c.internal("entry", err)
	}

	c.incEntry("accepted")
	return &AdmitResult{
		Message:       "Vehicle entered successfully",
		PlateNumber:   data.PlateNumber,
		TransactionID: rec.TransactionID,
	}, nil
}

// Release ends the occupancy for a plate: the active record is removed, the
// archive record written, and the history entry patched with the exit time.
// Exactly once per transaction; a second release returns ErrNotFound.
func (c *Controller) Release(ctx context.Context, plateNumber string) (*ReleaseResult, error) {
	if plateNumber == "" {
		return nil, ErrMissingPlate
	}
	start := c.now()
	defer c.observeLatency("exit", start)

	timeOut := c.now().In(c.loc).Format("3:04:05 PM")
	res, err := c.ledger.Release(ctx, plateNumber, timeOut)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.incExit("not_found")
		return nil, fmt.Errorf("%w: %s is not in the parking area", ErrNotFound, plateNumber)
	}
	if err != nil {
		c.incExit("error")
		return nil, c.internal("exit", err)
	}

	c.incExit("released")
	c.notifyIfFreed(res)

	return &ReleaseResult{
		Message:       "Vehicle checked out successfully",
		PlateNumber:   plateNumber,
		TransactionID: res.Out.TransactionID,
	}, nil
}

// notifyIfFreed dispatches a slot-availability notification when the released
// vehicle's partition was full before this release.
func (c *Controller) notifyIfFreed(res *ledger.ReleaseResult) {
	if c.notifier == nil || res == nil || res.Out == nil {
		return
	}
	class := vclass.Class(res.Out.VehicleClass)
	limit, partitioned := c.pool.LimitFor(class)
	occupied := res.ActiveBefore
	if partitioned {
		occupied = res.ActiveBeforeClass
	}
	if occupied >= int64(limit) {
		c.notifier.SlotFreed(class)
	}
}

// History returns the history entries whose entry date equals the given
// facility-local day. A day with no records yields the Empty marker.
func (c *Controller) History(ctx context.Context, date string) (*HistoryResult, error) {
	if date == "" {
		return nil, ErrMissingDate
	}
	start := c.now()
	defer c.observeLatency("history", start)

	entries, err := c.ledger.HistoryByDate(ctx, date)
	if err != nil {
		return nil, c.internal("history", err)
	}
	if len(entries) == 0 {
		return &HistoryResult{
			Message: "No records found for the specified date",
			Entries: []model.ParkingLogEntry{},
			Empty:   true,
		}, nil
	}
	return &HistoryResult{
		Message: "Records retrieved successfully",
		Entries: entries,
	}, nil
}

// internal logs the underlying cause and returns the opaque ErrInternal so
// store details never leak past the controller boundary.
func (c *Controller) internal(op string, err error) error {
	log.Printf("admission: %s failed: %v", op, err)
	return ErrInternal
}

func ownerName(data VehicleData) string {
	parts := strings.Fields(data.FirstName + " " + data.MiddleName + " " + data.LastName)
	return strings.Join(parts, " ")
}
