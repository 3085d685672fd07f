package records

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrInUse      = errors.New("record is referenced by prescriptions")
	ErrConstraint = errors.New("constraint violation")
)

// translate maps store errors onto the package sentinels. Drivers that do
// not implement gorm's error translation are matched on their message.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
