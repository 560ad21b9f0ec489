package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/telemetry"
)

// NewCPRCmd создаёт команду расшифровки CPR-номера.
func NewCPRCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cpr NUMBER",
		Short: "Decode birthdate and age from a CPR number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := decodeCPR(args[0], time.Now())
			if err != nil {
				return err
			}
			outputFn().Print(
				[]string{"CPR", "BIRTHDATE", "AGE"},
				[][]string{{info.CPR, info.Birthdate, strconv.Itoa(info.Age)}},
				info,
			)
			return nil
		},
	}
}

// cprInfo — расшифровка CPR для вывода.
type cprInfo struct {
	CPR       string `json:"cpr"`
	Birthdate string `json:"birthdate"`
	Age       int    `json:"age"`
}

func decodeCPR(cpr string, now time.Time) (cprInfo, error) {
	birth, err := domain.DecodeBirthdate(cpr)
	if err != nil {
		return cprInfo{}, err
	}
	return cprInfo{
		CPR:       telemetry.MaskCPR(cpr),
		Birthdate: birth.Format("2006-01-02"),
		Age:       ageAt(birth, now.In(domain.Copenhagen)),
	}, nil
}

// ageAt возвращает число полных лет на дату now.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
