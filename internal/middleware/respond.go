package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError renders the {success:false,error} envelope the API uses.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
