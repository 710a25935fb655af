package verifier

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/auth"
)

type verifyRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
	URL     string `json:"url" validate:"omitempty,url"`
}

// VerifyResponse is the body of a successful POST /api/verify/.
type VerifyResponse struct {
	CredibilityScore float64  `json:"credibility_score"`
	Explanation      string   `json:"explanation"`
	Issues           []string `json:"issues"`
	Recommendations  []string `json:"recommendations"`
	AdvertisementID  string   `json:"advertisement_id"`
	ResultID         string   `json:"result_id"`
}

func newVerifyResponse(rec *Record) VerifyResponse {
	resp := VerifyResponse{
		CredibilityScore: rec.Outcome.CredibilityScore,
		Explanation:      rec.Outcome.Explanation,
		Issues:           rec.Outcome.Issues,
		Recommendations:  rec.Outcome.Recommendations,
		AdvertisementID:  rec.Advertisement.ID,
		ResultID:         rec.Result.ID,
	}
	if resp.Issues == nil {
		resp.Issues = []string{}
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []string{}
	}
	return resp
}

// RegisterRoutes mounts POST /api/verify/. It must sit behind
// auth.Middleware.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/api/verify/", handleVerify(svc))
}

func handleVerify(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var req verifyRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := svc.VerifyAndRecord(r.Context(), u.ID, req.Content, req.URL)
		if err != nil {
			WriteError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, newVerifyResponse(rec))
	}
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, ErrRetrievalUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrModelFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with the status from StatusFor.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("verifier: %v", err)
		msg = "internal error"
	}
	api.Error(w, status, msg)
}
