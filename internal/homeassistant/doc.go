// Package homeassistant provides the session used to talk to a Home Assistant
// hub over its REST API.
//
// # Endpoints
//
//   - GET /api/: status check, returns {"message": "..."}
//   - GET /api/states: every entity state known to the hub
//   - POST /api/services/switch/toggle: toggles one switch entity
//
// Every request carries the bearer token from the persisted connection
// settings. A Session is built from the settings store with Load and is meant
// to live for a single operation.
//
// # Errors
//
// Hub calls return errors wrapping one of ErrRequest, ErrTransport, ErrStatus
// or ErrDecode. CheckStatus never returns an error; it folds the classes into
// an Offline result with a distinct message per class.
//
// # Entity normalization
//
// ListSwitchEntities keeps entities whose id starts with "switch." and whose
// state is not "unavailable". A missing state counts as unavailable. A state
// that is not a JSON string fails conversion and the entity is dropped.
package homeassistant
