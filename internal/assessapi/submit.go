package assessapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sift/internal/assessment"
)

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in assessment.Assessment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if in.ID == "" {
		http.Error(w, `{"error":"assessment id is required"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("sift.assessment.id", in.ID))

	sr, err := a.svc.Submit(r.Context(), &in)
	if err != nil {
		a.logger.Error(r.Context(), err, "submit failed", "assessment_id", in.ID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      sr.ID,
		"skipped": sr.Skipped,
		"reason":  sr.Reason,
	})
}
