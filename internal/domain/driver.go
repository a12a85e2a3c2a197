package domain

// VehicleType represents the service class of a vehicle.
type VehicleType string

const (
	VehicleEconomy VehicleType = "ECONOMY"
	VehicleSUV     VehicleType = "SUV"
	VehiclePremium VehicleType = "PREMIUM"
)

// ClassRank returns the position of the vehicle type in the service class
// order ECONOMY < SUV < PREMIUM. A driver may serve rides of their own class
// or any lower class. Unknown types rank below ECONOMY.
func (v VehicleType) ClassRank() int {
	switch v {
	case VehicleEconomy:
		return 1
	case VehicleSUV:
		return 2
	case VehiclePremium:
		return 3
	default:
		return 0
	}
}

// ValidVehicleType reports whether v is one of the known service classes.
func ValidVehicleType(v VehicleType) bool {
	return v.ClassRank() > 0
}

// DriverProfile holds the driver-specific state for a user with the DRIVER
// role. One profile exists per driver, keyed by the owning user's id.
type DriverProfile struct {
	ID            string
	UserID        string
	LicenseNumber string
	VehicleType   VehicleType
	VehicleModel  string
	VehiclePlate  string
	City          string
	Rating        float64
	TotalRides    int
	IsAvailable   bool
	CurrentLat    *float64
	CurrentLng    *float64
}

// CanServe reports whether the driver's vehicle class matches the requested
// class or a better one.
func (p *DriverProfile) CanServe(requested VehicleType) bool {
	return p.VehicleType.ClassRank() >= requested.ClassRank()
}
