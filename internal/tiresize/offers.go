package tiresize

// Offer is a curated tire shown on the results step.
type Offer struct {
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Season   string  `json:"season"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
	InStock  bool    `json:"in_stock"`
	Category string  `json:"category"`
}

var offers = []Offer{
	{Brand: "Michelin", Model: "Defender T+H", Season: "All-Season", Price: 189, Rating: 4.8, InStock: true, Category: "Premium"},
	{Brand: "Goodyear", Model: "Assurance WeatherReady", Season: "All-Season", Price: 159, Rating: 4.6, InStock: true, Category: "Mid-Range"},
	{Brand: "Continental", Model: "TrueContact Plus", Season: "All-Season", Price: 175, Rating: 4.7, InStock: true, Category: "Premium"},
	{Brand: "Firestone", Model: "Destination LE3", Season: "All-Season", Price: 135, Rating: 4.4, InStock: true, Category: "Budget"},
}

// Offers returns the curated offers. Prices are per tire and the same for
// every size.
func Offers() []Offer {
	out := make([]Offer, len(offers))
	copy(out, offers)
	return out
}
