package service

import "errors"

var (
	// ErrInvalidTransition is returned when a ride cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid ride state transition")

	// ErrPermissionDenied is returned when the actor is not allowed to perform the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInsufficientFunds is returned when a wallet debit would overdraw the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoDriverAvailable is returned when no driver can be matched.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrDriverHasActiveRide is returned when a driver already has an active ride.
	ErrDriverHasActiveRide = errors.New("driver already has an active ride")

	// ErrDriverNotAvailable is returned when the driver is not accepting rides.
	ErrDriverNotAvailable = errors.New("driver not available")

	// ErrRideAlreadyRated is returned when the ride has already been rated.
	ErrRideAlreadyRated = errors.New("ride already rated")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDestinationLocation is returned when destination coordinates are invalid.
	ErrInvalidDestinationLocation = errors.New("invalid destination location")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidVehicleType is returned when the requested vehicle type is unknown.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidAmount is returned when a wallet amount is outside the allowed range.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRating is returned when a rating is outside the 1 to 5 range.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidFare is returned when a fare override is negative.
	ErrInvalidFare = errors.New("invalid fare")

	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrDriverProfileRequired is returned when a driver operation is attempted
	// by a user without a driver profile.
	ErrDriverProfileRequired = errors.New("driver profile required")

	// ErrNoPlatformAccount is returned when settlement cannot find the platform account.
	ErrNoPlatformAccount = errors.New("platform account not configured")
)
