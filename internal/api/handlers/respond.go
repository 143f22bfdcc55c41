package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseScope builds a Scope from the raw instance_id (required) and
// organization_id (optional) strings of a request body or query.
func parseScope(instanceID, organizationID string) (domain.Scope, error) {
	iid, err := uuid.Parse(instanceID)
	if err != nil {
		return domain.Scope{}, err
	}
	scope := domain.Scope{InstanceID: iid}
	if organizationID != "" {
		oid, err := uuid.Parse(organizationID)
		if err != nil {
			return domain.Scope{}, err
		}
		scope.OrganizationID = &oid
	}
	return scope, nil
}
