// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handlers. These give the
// client a more specific reason than the standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidRoomIDError    = 3002 // Target room ID in the WS URL does not exist or is malformed.
	RoomFullError         = 3003 // Roster already holds the required number of players.
	WrongPasswordError    = 3004 // Private room password mismatch.
	RoomInProgressError   = 3005 // Match already started for this room.
)
