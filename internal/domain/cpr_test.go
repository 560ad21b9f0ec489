package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeBirthdate_Centuries(t *testing.T) {
	tests := []struct {
		name string
		cpr  string
		want time.Time
	}{
		{"seq 0-1999 старший век", "0101501234", time.Date(1950, 1, 1, 0, 0, 0, 0, Copenhagen)},
		{"seq 0-1999 младший век", "0101101234", time.Date(2010, 1, 1, 0, 0, 0, 0, Copenhagen)},
		{"seq 2000-4999 всегда 1900", "1502103000", time.Date(1910, 2, 15, 0, 0, 0, 0, Copenhagen)},
		{"seq 5000-8999 старший век", "3112905000", time.Date(1990, 12, 31, 0, 0, 0, 0, Copenhagen)},
		{"seq 5000-8999 младший век", "3112055000", time.Date(2005, 12, 31, 0, 0, 0, 0, Copenhagen)},
		{"seq 9000-9999 XIX век", "0107709999", time.Date(1870, 7, 1, 0, 0, 0, 0, Copenhagen)},
		{"seq 9000-9999 младший век", "0107209000", time.Date(2020, 7, 1, 0, 0, 0, 0, Copenhagen)},
		{"граница 37", "0101374000", time.Date(1937, 1, 1, 0, 0, 0, 0, Copenhagen)},
		{"seq 0000 граница 37", "0101370000", time.Date(1937, 1, 1, 0, 0, 0, 0, Copenhagen)},
		{"seq 0000 до границы", "0101300000", time.Date(2030, 1, 1, 0, 0, 0, 0, Copenhagen)},
		{"високосный год", "2902000001", time.Date(2000, 2, 29, 0, 0, 0, 0, Copenhagen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBirthdate(tt.cpr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got.Location() != Copenhagen {
				t.Errorf("expected Europe/Copenhagen location, got %v", got.Location())
			}
		})
	}
}

func TestDecodeBirthdate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cpr  string
	}{
		{"короткий", "010150123"},
		{"9 цифр", "010137000"},
		{"буквы в порядковом номере", "01013700AA"},
		{"длинный", "01015012345"},
		{"с дефисом", "010150-123"},
		{"буквы", "01015O1234"},
		{"месяц 13", "0113501234"},
		{"день 0", "0001501234"},
		{"31 февраля", "3102501234"},
		{"29 февраля не в високосный год", "2902011234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBirthdate(tt.cpr)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidCPR) {
				t.Errorf("expected ErrInvalidCPR, got %v", err)
			}
		})
	}
}
