package livepager

import (
	"cmp"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the order in which position keys are walked.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the strict comparison selecting items after a cursor.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// Operator defines a strict comparison operator against the cursor key.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"
)

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

// After reports whether key lies strictly after cursor under the operator.
// Equal keys are never after each other, so the cursor item itself is
// excluded.
func After[K cmp.Ordered](o Operator, key, cursor K) bool {
	switch o {
	case OperatorGT:
		return cmp.Compare(key, cursor) > 0
	case OperatorLT:
		return cmp.Compare(key, cursor) < 0
	default:
		panic(fmt.Errorf("cannot compare with operator '%s'", o))
	}
}

// PositionColumn names the SQL column holding the position key.
type PositionColumn struct {
	Column    string
	Direction Direction
}

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o PositionColumn) validate() error {
	if o.Column == "" {
		return fmt.Errorf("empty position column")
	}

	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(o.Column)) {
		return fmt.Errorf("position column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// ToSQL returns "<column> <direction>" suitable for an ORDER BY clause.
func (o PositionColumn) ToSQL() string {
	return fmt.Sprintf("%s %s", o.Column, o.Direction)
}

// Apply applies the ordering to a gorm query.
func (o PositionColumn) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.ToSQL())
}
