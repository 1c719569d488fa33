package model

// Service is an entry of the clinic's treatment catalog.
type Service struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    int    `json:"duration_minutes"`
	Price       int    `json:"price"`
	Category    string `json:"category"`
}

var serviceCatalog = []Service{
	{Name: "General Checkup", Description: "Comprehensive oral examination and consultation", Duration: 30, Price: 80, Category: "General"},
	{Name: "Teeth Cleaning", Description: "Professional cleaning and plaque removal", Duration: 45, Price: 120, Category: "Preventive"},
	{Name: "Teeth Whitening", Description: "Professional whitening treatment", Duration: 60, Price: 400, Category: "Cosmetic"},
	{Name: "Dental Filling", Description: "Tooth-colored composite fillings", Duration: 60, Price: 200, Category: "Restorative"},
	{Name: "Root Canal", Description: "Endodontic treatment to save infected teeth", Duration: 90, Price: 800, Category: "Endodontic"},
	{Name: "Emergency Care", Description: "Urgent dental care for pain relief", Duration: 30, Price: 150, Category: "Emergency"},
}

var timeSlots = []string{
	"08:00 AM", "09:00 AM", "10:00 AM", "11:00 AM",
	"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
}

// Services returns a copy of the catalog.
func Services() []Service {
	out := make([]Service, len(serviceCatalog))
	copy(out, serviceCatalog)
	return out
}

// LookupService finds a catalog entry by name.
func LookupService(name string) (Service, bool) {
	for _, s := range serviceCatalog {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// TimeSlots returns a copy of the bookable slot labels.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

func IsTimeSlot(label string) bool {
	for _, s := range timeSlots {
		if s == label {
			return true
		}
	}
	return false
}
