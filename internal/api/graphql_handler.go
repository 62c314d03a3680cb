/**
 * @description
 * This file contains the internal GraphQL proxy. Frontend queries are
 * forwarded byte-for-byte to the Drupal CMS with the cached bearer token
 * attached, and the CMS response comes back byte-for-byte, including any
 * GraphQL-level errors array. Only transport failures are converted into
 * error responses here.
 */
package api

import (
	"io"
	"net/http"
)

// handleGraphQLProxy forwards a GraphQL request to the CMS (or, in demo
// mode, answers it from the sample content set).
func (h *Handler) handleGraphQLProxy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Cannot read request body")
		return
	}

	if h.demo != nil {
		resp, err := h.demo.HandleQuery(body)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid GraphQL request")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(resp)
		return
	}

	if h.proxy == nil {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"errors": []map[string]string{{"message": "Drupal connection not configured"}},
		})
		return
	}

	resp, status, err := h.proxy.Query(r.Context(), body)
	if err != nil {
		h.logger.Error("graphql proxy error", "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"errors": []map[string]string{{"message": "Failed to fetch from Drupal"}},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(resp)
}
