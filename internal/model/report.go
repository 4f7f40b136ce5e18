package model

type Weather string

const (
	Rainy  Weather = "lluvioso"
	Cloudy Weather = "nubloso"
	Sunny  Weather = "soleado"
)

// Weathers lists every condition a report may carry.
var Weathers = []Weather{Rainy, Cloudy, Sunny}

// Countries lists the country codes used by generated reports.
var Countries = []string{"GT", "BR", "ESP", "EEUU", "MX", "AR", "CO", "PE", "CL", "CA"}

// UnknownCountry is used when a report arrives without a country code.
const UnknownCountry = "UNKNOWN"

func (w Weather) Valid() bool {
	for _, known := range Weathers {
		if w == known {
			return true
		}
	}
	return false
}

type Report struct {
	Description string  `json:"description"`
	Country     string  `json:"country"`
	Weather     Weather `json:"weather"`
}

// CountryOrUnknown returns the report country, or UnknownCountry when empty.
func (r Report) CountryOrUnknown() string {
	if r.Country == "" {
		return UnknownCountry
	}
	return r.Country
}
