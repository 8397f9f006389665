package models

// APIStatus is the reachability tag of a status check.
type APIStatus string

// Status values.
const (
	APIStatusOnline  APIStatus = "Online"
	APIStatusOffline APIStatus = "Offline"
)

// APIStatusResult is the outcome of a single status check. Never persisted.
type APIStatusResult struct {
	Status  APIStatus `json:"status"`
	Message string    `json:"message"`
}

// Online builds an online result carrying the hub's message.
func Online(message string) APIStatusResult {
	return APIStatusResult{Status: APIStatusOnline, Message: message}
}

// Offline builds an offline result with a human-readable reason.
func Offline(message string) APIStatusResult {
	return APIStatusResult{Status: APIStatusOffline, Message: message}
}

// IsOnline reports whether the hub answered.
func (r APIStatusResult) IsOnline() bool {
	return r.Status == APIStatusOnline
}
