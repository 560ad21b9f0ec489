package domain

import (
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata"
)

// Copenhagen — часовой пояс журнала и портала.
var Copenhagen = mustLoadLocation("Europe/Copenhagen")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Границы порядковых номеров CPR, определяющие век рождения.
const (
	cprLength        = 10
	centurySplitYear = 37
)

// DecodeBirthdate возвращает дату рождения по CPR-номеру DDMMYYSSSS.
//
// Век определяется по порядковому номеру SSSS:
//
//	0000–1999 → 1900+YY при YY ≥ 37, иначе 2000+YY
//	2000–4999 → 1900+YY
//	5000–8999 → 1900+YY при YY ≥ 37, иначе 2000+YY
//	9000–9999 → 1800+YY при YY ≥ 37, иначе 2000+YY
func DecodeBirthdate(cpr string) (time.Time, error) {
	if len(cpr) != cprLength {
		return time.Time{}, fmt.Errorf("%w: must be exactly 10 digits", ErrInvalidCPR)
	}
	for _, r := range cpr {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("%w: must be exactly 10 digits", ErrInvalidCPR)
		}
	}

	day, _ := strconv.Atoi(cpr[0:2])
	month, _ := strconv.Atoi(cpr[2:4])
	yy, _ := strconv.Atoi(cpr[4:6])
	seq, _ := strconv.Atoi(cpr[6:10])

	var year int
	switch {
	case seq <= 1999:
		year = splitCentury(yy, 1900)
	case seq <= 4999:
		year = 1900 + yy
	case seq <= 8999:
		year = splitCentury(yy, 1900)
	default:
		year = splitCentury(yy, 1800)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d out of range", ErrInvalidCPR, month)
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, Copenhagen)
	// time.Date нормализует 31.02 в 03.03, такой номер некорректен.
	if day < 1 || date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("%w: day %d out of range", ErrInvalidCPR, day)
	}
	return date, nil
}

func splitCentury(yy, base int) int {
	if yy >= centurySplitYear {
		return base + yy
	}
	return 2000 + yy
}
