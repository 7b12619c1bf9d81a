package config

import (
	"fmt"
	"os"
	"strconv"
)

type PricingMode string

const (
	// PricingFlat charges UnitCentavos per ticket.
	PricingFlat PricingMode = "flat"
	// PricingTiered applies the combo discount:
	// total = q*1000 - (2000 if q>=7; 500 if q>=3) centavos,
	// i.e. 1 ticket for R$10, 3 for R$25, 7 for R$50.
	PricingTiered PricingMode = "tiered"
)

type Pricing struct {
	Mode         PricingMode
	UnitCentavos int
}

func newPricing() (Pricing, error) {
	mode := PricingMode(os.Getenv("PRICING_MODE"))
	if mode == "" {
		mode = PricingFlat
	}

	if mode != PricingFlat && mode != PricingTiered {
		return Pricing{}, fmt.Errorf("invalid PRICING_MODE %q", mode)
	}

	unitStr := os.Getenv("PRICING_UNIT_CENTAVOS")
	if unitStr == "" {
		unitStr = "100"
	}

	unit, err := strconv.Atoi(unitStr)
	if err != nil || unit <= 0 {
		return Pricing{}, fmt.Errorf("invalid PRICING_UNIT_CENTAVOS %q", unitStr)
	}

	return Pricing{Mode: mode, UnitCentavos: unit}, nil
}

// Total returns the checkout total in centavos for the given quantity.
func (p Pricing) Total(quantity int) int {
	if p.Mode == PricingTiered {
		discount := 0
		switch {
		case quantity >= 7:
			discount = 2000
		case quantity >= 3:
			discount = 500
		}
		return quantity*1000 - discount
	}

	return quantity * p.UnitCentavos
}
