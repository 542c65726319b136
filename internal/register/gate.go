package register

import (
	"errors"
	"time"

	"caja/internal/core"
)

// UnknownPolicy decides how the gate treats a date whose backend status
// could not be resolved. The original behavior is permissive (unknown is
// operable, same as open); the safer read-only alternative is available as
// configuration rather than a code change.
type UnknownPolicy string

const (
	UnknownOperable UnknownPolicy = "permissive"
	UnknownReadOnly UnknownPolicy = "strict"
)

// ParseUnknownPolicy maps a config string to a policy, defaulting to
// permissive for empty input.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(s) {
	case UnknownOperable, UnknownReadOnly:
		return UnknownPolicy(s), nil
	case "":
		return UnknownOperable, nil
	default:
		return "", errors.New("unknown status policy must be 'permissive' or 'strict'")
	}
}

// Decision is the derived permission set for one date. It is recomputed on
// every cache refresh and date change, never stored.
type Decision struct {
	CanRecordExpense bool
	CanRecordIncome  bool
	CanClose         bool
	Label            string
}

// Gate labels, in the register screen's vocabulary.
const (
	LabelFuture         = "future date"
	LabelClosedReadOnly = "closed (read-only)"
	LabelPastReadOnly   = "read-only (past)"
	LabelClosed         = "closed"
	LabelUnknown        = "unknown (read-only)"
	LabelOpen           = "open"
)

// Rejection reasons surfaced by Authorize. Each carries the specific cause
// so the user message can name it.
var (
	ErrFutureDate     = errors.New("cannot operate on a future date")
	ErrNotToday       = errors.New("only today's register can be modified")
	ErrRegisterClosed = errors.New("register already closed")
	ErrStatusUnknown  = errors.New("register status unknown")
)

// Gate evaluates which actions a date currently permits. Now is injectable
// for tests; a nil Now uses the wall clock.
type Gate struct {
	Policy UnknownPolicy
	Now    func() time.Time
}

func (g Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Evaluate applies the permission table over (future, today, status).
// Only today is ever mutable, and only while not closed; past dates are
// read-only regardless of their own historical status, and future dates are
// categorically inert.
func (g Gate) Evaluate(date string, status core.Status) Decision {
	now := g.now()

	if core.IsFutureIn(date, now) {
		return Decision{Label: LabelFuture}
	}
	if !core.IsTodayIn(date, now) {
		if status == core.StatusClosed {
			return Decision{Label: LabelClosedReadOnly}
		}
		return Decision{Label: LabelPastReadOnly}
	}
	if status == core.StatusClosed {
		return Decision{Label: LabelClosed}
	}
	if status == core.StatusUnknown && g.Policy == UnknownReadOnly {
		return Decision{Label: LabelUnknown}
	}
	return Decision{
		CanRecordExpense: true,
		CanRecordIncome:  true,
		CanClose:         true,
		Label:            LabelOpen,
	}
}

// Authorize returns nil when the date is operable, or the specific
// rejection reason otherwise. All three mutating actions share the same
// permission, so no action parameter is needed.
func (g Gate) Authorize(date string, status core.Status) error {
	now := g.now()

	if core.IsFutureIn(date, now) {
		return ErrFutureDate
	}
	if !core.IsTodayIn(date, now) {
		return ErrNotToday
	}
	if status == core.StatusClosed {
		return ErrRegisterClosed
	}
	if status == core.StatusUnknown && g.Policy == UnknownReadOnly {
		return ErrStatusUnknown
	}
	return nil
}
