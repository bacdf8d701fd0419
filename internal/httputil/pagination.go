package httputil

import (
	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	customValidation "github.com/KiritoEM/safeo-api/internal/validation"
)

const (
	// DefaultPageLimit is used when the limit query parameter is absent.
	DefaultPageLimit = 50
	// MaxPageLimit caps the limit query parameter.
	MaxPageLimit = 100
)

// Page is an offset/limit window over a listing.
type Page struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

// Validate checks the window bounds.
func (p *Page) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Offset, validation.Min(0)),
		validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
	)
}

// ParsePagination reads offset and limit from the query string. Errors wrap
// apperrors.ErrInvalidInput.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	page := Page{Limit: DefaultPageLimit}
	if err := c.ShouldBindQuery(&page); err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInvalidInput, "offset and limit must be integers")
	}
	if err := page.Validate(); err != nil {
		return 0, 0, customValidation.WrapValidationError(err)
	}
	return page.Offset, page.Limit, nil
}
