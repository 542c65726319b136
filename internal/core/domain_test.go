package core

import (
	"errors"
	"testing"
)

func TestStatusFromWire(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"ABIERTA", StatusOpen},
		{"CERRADA", StatusClosed},
		{"cerrada", StatusClosed},
		{" abierta ", StatusOpen},
		{"", StatusUnknown},
		{"garbage", StatusUnknown},
	}
	for _, tc := range cases {
		if got := StatusFromWire(tc.in); got != tc.want {
			t.Fatalf("StatusFromWire(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpenseEntryValidate(t *testing.T) {
	valid := ExpenseEntry{Date: "2026-03-14", Description: "hielo", Amount: Money{Cents: 1500}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	cases := []struct {
		name  string
		entry ExpenseEntry
		want  error
	}{
		{"missing date", ExpenseEntry{Description: "hielo", Amount: Money{Cents: 100}}, ErrMissingDate},
		{"bad date", ExpenseEntry{Date: "14/03/2026", Description: "hielo", Amount: Money{Cents: 100}}, ErrInvalidDate},
		{"empty description", ExpenseEntry{Date: "2026-03-14", Description: "   ", Amount: Money{Cents: 100}}, ErrEmptyDescription},
		{"zero amount", ExpenseEntry{Date: "2026-03-14", Description: "hielo"}, ErrInvalidAmount},
		{"negative amount", ExpenseEntry{Date: "2026-03-14", Description: "hielo", Amount: Money{Cents: -5}}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.entry.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeliveryIncomeEntryValidate(t *testing.T) {
	valid := DeliveryIncomeEntry{Date: "2026-03-14", Amount: Money{Cents: 250000}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}
	if err := (DeliveryIncomeEntry{Amount: Money{Cents: 100}}).Validate(); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
	if err := (DeliveryIncomeEntry{Date: "2026-03-14"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
