package register

import (
	"errors"
	"testing"

	"caja/internal/core"
)

func TestGateEvaluateTable(t *testing.T) {
	gate := testGate(UnknownOperable)

	cases := []struct {
		name    string
		date    string
		status  core.Status
		allowed bool
		label   string
	}{
		{"future open", tomorrow, core.StatusOpen, false, LabelFuture},
		{"future closed", tomorrow, core.StatusClosed, false, LabelFuture},
		{"future unknown", tomorrow, core.StatusUnknown, false, LabelFuture},
		{"past closed", yesterday, core.StatusClosed, false, LabelClosedReadOnly},
		{"past open", yesterday, core.StatusOpen, false, LabelPastReadOnly},
		{"past unknown", yesterday, core.StatusUnknown, false, LabelPastReadOnly},
		{"today closed", today, core.StatusClosed, false, LabelClosed},
		{"today open", today, core.StatusOpen, true, LabelOpen},
		{"today unknown", today, core.StatusUnknown, true, LabelOpen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := gate.Evaluate(tc.date, tc.status)
			if d.CanRecordExpense != tc.allowed || d.CanRecordIncome != tc.allowed || d.CanClose != tc.allowed {
				t.Fatalf("permissions = %v/%v/%v, want all %v",
					d.CanRecordExpense, d.CanRecordIncome, d.CanClose, tc.allowed)
			}
			if d.Label != tc.label {
				t.Fatalf("label = %q, want %q", d.Label, tc.label)
			}
		})
	}
}

func TestGatePermissionsMoveTogether(t *testing.T) {
	// For today, canClose == (status != CLOSED) and the three permissions
	// are always identical.
	gate := testGate(UnknownOperable)
	for _, st := range []core.Status{core.StatusOpen, core.StatusClosed, core.StatusUnknown} {
		d := gate.Evaluate(today, st)
		if d.CanClose != (st != core.StatusClosed) {
			t.Fatalf("status %q: canClose = %v", st, d.CanClose)
		}
		if d.CanRecordExpense != d.CanClose || d.CanRecordIncome != d.CanClose {
			t.Fatalf("status %q: permissions diverge: %+v", st, d)
		}
	}
}

func TestGateStrictUnknownPolicy(t *testing.T) {
	gate := testGate(UnknownReadOnly)

	d := gate.Evaluate(today, core.StatusUnknown)
	if d.CanRecordExpense || d.CanRecordIncome || d.CanClose {
		t.Fatalf("strict policy should lock unknown status: %+v", d)
	}
	if d.Label != LabelUnknown {
		t.Fatalf("label = %q, want %q", d.Label, LabelUnknown)
	}

	// Known statuses behave as in the permissive table.
	if d := gate.Evaluate(today, core.StatusOpen); !d.CanClose {
		t.Fatal("strict policy must not lock an open register")
	}
	if err := gate.Authorize(today, core.StatusUnknown); !errors.Is(err, ErrStatusUnknown) {
		t.Fatalf("expected ErrStatusUnknown, got %v", err)
	}
}

func TestGateAuthorizeReasons(t *testing.T) {
	gate := testGate(UnknownOperable)

	cases := []struct {
		name   string
		date   string
		status core.Status
		want   error
	}{
		{"future", tomorrow, core.StatusOpen, ErrFutureDate},
		{"past", yesterday, core.StatusOpen, ErrNotToday},
		{"today closed", today, core.StatusClosed, ErrRegisterClosed},
		{"today open", today, core.StatusOpen, nil},
		{"today unknown", today, core.StatusUnknown, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Authorize(tc.date, tc.status)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseUnknownPolicy(t *testing.T) {
	cases := []struct {
		in   string
		want UnknownPolicy
		ok   bool
	}{
		{"", UnknownOperable, true},
		{"permissive", UnknownOperable, true},
		{"strict", UnknownReadOnly, true},
		{"paranoid", "", false},
	}
	for _, tc := range cases {
		got, err := ParseUnknownPolicy(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: got (%q, %v), want %q", tc.in, got, err, tc.want)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}
