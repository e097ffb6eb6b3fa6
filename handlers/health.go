package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/utils"
)

// GET /healthz
func (db *DBHandler) Health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("Health: database unreachable")
		utils.WriteError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
