package port

import "github.com/bnema/anyconv/internal/domain"

// History persists finished conversions.
type History interface {
	Record(c *domain.Conversion) error
	Recent(n int) ([]domain.Conversion, error)
	Close() error
}
