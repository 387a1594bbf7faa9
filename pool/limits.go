// File: pool/limits.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
)

// Limits is the size policy of a Pool.
type Limits struct {
	// MaxPoolSize caps the total capacity of idle pooled segments.
	MaxPoolSize datasize.ByteSize `config:"max_pool_size"`
	// MaxItemSize is the largest segment capacity worth pooling.
	MaxItemSize datasize.ByteSize `config:"max_item_size"`
	// MinItemSize is the smallest segment capacity worth pooling.
	MinItemSize datasize.ByteSize `config:"min_item_size"`
	// AllocationFloor is the minimum capacity of freshly allocated segments.
	AllocationFloor datasize.ByteSize `config:"allocation_floor"`
}

// DefaultLimits returns the stock policy: 1MB pool, 256KB items, 8KB floor.
func DefaultLimits() Limits {
	return Limits{
		MaxPoolSize:     1 * datasize.MB,
		MaxItemSize:     256 * datasize.KB,
		MinItemSize:     8 * datasize.KB,
		AllocationFloor: 8 * datasize.KB,
	}
}

// Validate checks that the limits are internally consistent.
func (l Limits) Validate() error {
	switch {
	case l.MaxItemSize < l.MinItemSize:
		return errors.Errorf("pool: max_item_size %s below min_item_size %s", l.MaxItemSize.HR(), l.MinItemSize.HR())
	case l.MaxPoolSize < l.MaxItemSize:
		return errors.Errorf("pool: max_pool_size %s below max_item_size %s", l.MaxPoolSize.HR(), l.MaxItemSize.HR())
	}
	return nil
}

func bytesize(n int) datasize.ByteSize { return datasize.ByteSize(n) }
