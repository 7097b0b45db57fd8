package appointment

import "slices"

// ServiceOption is a bookable service.
type ServiceOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var services = []ServiceOption{
	{ID: "tire-installation", Label: "Tire Installation"},
	{ID: "wheel-alignment", Label: "Wheel Alignment"},
	{ID: "oil-change", Label: "Oil Change"},
	{ID: "tire-rotation", Label: "Tire Rotation"},
	{ID: "brake-service", Label: "Brake Service"},
}

var slots = []string{
	"8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM",
	"12:00 PM", "1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM",
}

// Services returns the bookable services in display order.
func Services() []ServiceOption {
	return slices.Clone(services)
}

// Slots returns the bookable time slots in display order.
func Slots() []string {
	return slices.Clone(slots)
}

// IsSlot reports whether t is one of the fixed slots.
func IsSlot(t string) bool {
	return slices.Contains(slots, t)
}

// IsService reports whether id names a catalog service.
func IsService(id string) bool {
	return slices.ContainsFunc(services, func(s ServiceOption) bool { return s.ID == id })
}

// Labels maps service IDs to display labels. Unknown IDs pass through.
func Labels(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		label := id
		for _, s := range services {
			if s.ID == id {
				label = s.Label
				break
			}
		}
		out = append(out, label)
	}
	return out
}
