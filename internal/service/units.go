package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saadjs/caffinity-cli/internal/model"
)

const (
	mlPerFluidOunce = 29.5735
	ouncesPerCup    = 8
)

func OzToMl(oz float64) int {
	return int(math.Round(oz * mlPerFluidOunce))
}

// OzToCup converts to cups rounded half-up to two decimals.
func OzToCup(oz float64) float64 {
	cups, _ := decimal.NewFromFloat(oz).
		Div(decimal.NewFromInt(ouncesPerCup)).
		Round(2).
		Float64()
	return cups
}

// FormatServingSize renders a beverage's serving in unit. Beverages without
// a recorded volume keep their catalog text.
func FormatServingSize(b model.Beverage, unit model.UnitPreference) string {
	if b.ServingSizeOz == nil || *b.ServingSizeOz <= 0 {
		return b.ServingSize
	}
	oz := *b.ServingSizeOz
	switch unit {
	case model.UnitMl:
		return fmt.Sprintf("%d ml", OzToMl(oz))
	case model.UnitCup:
		cups := OzToCup(oz)
		label := "cups"
		if cups == 1 {
			label = "cup"
		}
		return fmt.Sprintf("%s %s", formatNumber(cups), label)
	default:
		return fmt.Sprintf("%s oz", formatNumber(oz))
	}
}

func ParseUnitPreference(value string) (model.UnitPreference, error) {
	switch u := model.UnitPreference(strings.ToLower(strings.TrimSpace(value))); u {
	case model.UnitOz, model.UnitMl, model.UnitCup:
		return u, nil
	default:
		return "", fmt.Errorf("unsupported unit %q (expected oz, ml, cup)", value)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
