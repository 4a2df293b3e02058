package helpers

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/musclepoints/spot-backend/internal/http/errors"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// ReadJSON decodifica el body en dst. Limita el tamaño y rechaza campos
// desconocidos para detectar clientes desincronizados temprano.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// WriteJSON serializa v con el status indicado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
