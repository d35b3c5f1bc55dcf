package domain

// WeatherSnapshot is one current-conditions observation for a coordinate pair.
// Temperature stays in Kelvin until formatting.
type WeatherSnapshot struct {
	TempKelvin     float64
	Humidity       int
	Status         string
	DetailedStatus string
	WindSpeed      float64
}

// KelvinToCelsius converts an absolute temperature to Celsius.
func KelvinToCelsius(k float64) float64 {
	return k - 273.15
}
