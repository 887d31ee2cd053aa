package energy

import "errors"

// FixedTariff prices consumption at a flat rate per kWh. Cost is always
// derived at read time; nothing stores a cost column.
type FixedTariff struct {
	rate float64
}

func NewFixedTariff(ratePerKWh float64) (*FixedTariff, error) {
	if ratePerKWh < 0 {
		return nil, errors.New("tariff: negative rate")
	}
	return &FixedTariff{rate: ratePerKWh}, nil
}

func (t *FixedTariff) Cost(kwh float64) float64 {
	return kwh * t.rate
}

func (t *FixedTariff) Rate() float64 {
	return t.rate
}
