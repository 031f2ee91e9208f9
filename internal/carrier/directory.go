package carrier

import (
	"context"

	"go.uber.org/zap"

	"shippingcalc/internal/rate"
)

// Directory gives read access to the configured carriers, their country rates and
// weight bands. Slices come back in stored order.
type Directory interface {
	Carriers(ctx context.Context) ([]rate.Carrier, error)
}

// Reader loads carriers for the rate engine and never fails: a directory error is
// logged and reported as "no carriers", which the engine answers with a fallback rate.
type Reader struct {
	dir    Directory
	logger *zap.Logger
}

func NewReader(dir Directory, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{dir: dir, logger: logger}
}

// Load returns the configured carriers, or an empty slice on any failure.
func (r *Reader) Load(ctx context.Context) []rate.Carrier {
	if r == nil || r.dir == nil {
		return []rate.Carrier{}
	}
	carriers, err := r.dir.Carriers(ctx)
	if err != nil {
		r.logger.Error("carrier directory read failed, treating as no carriers", zap.Error(err))
		return []rate.Carrier{}
	}
	if carriers == nil {
		return []rate.Carrier{}
	}
	return carriers
}
