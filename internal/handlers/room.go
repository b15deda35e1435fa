package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
)

// CreateRoom mints a fresh room identifier. Rooms themselves are created
// lazily by the first joinRoom event; identifiers are not reserved and carry
// no server-side state until someone joins.
func CreateRoom(re *core.RequestEvent) error {
	return re.JSON(http.StatusOK, map[string]string{
		"status": "success",
		"roomId": uuid.New().String(),
	})
}
