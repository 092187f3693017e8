package admission

import (
	"parking-gate-backend/config"
	"parking-gate-backend/internal/vclass"
)

// CapacityPool resolves which partition a vehicle class counts against and what
// that partition's limit is. The atomic check-and-increment itself happens
// inside the ledger's admission transaction; the pool only supplies the limit.
type CapacityPool struct {
	capacity int
	perClass map[vclass.Class]int
}

// NewCapacityPool builds a pool from the parking configuration. Classes with a
// configured limit get their own partition; everything else shares the
// undifferentiated pool.
func NewCapacityPool(cfg config.ParkingConfig) *CapacityPool {
	perClass := make(map[vclass.Class]int)
	if cfg.TwoWheelCapacity > 0 {
		perClass[vclass.TwoWheel] = cfg.TwoWheelCapacity
	}
	if cfg.FourWheelCapacity > 0 {
		perClass[vclass.FourWheel] = cfg.FourWheelCapacity
	}
	return &CapacityPool{capacity: cfg.Capacity, perClass: perClass}
}

// LimitFor returns the admission limit for a class and whether occupancy is
// counted per class or against the whole lot.
func (p *CapacityPool) LimitFor(class vclass.Class) (limit int, partitioned bool) {
	if l, ok := p.perClass[class]; ok {
		return l, true
	}
	return p.capacity, false
}
