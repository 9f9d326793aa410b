package handler

import (
	"net/http"
	"time"

	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/httputil"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// writeLoginError keeps unknown-account and wrong-password failures
// distinguishable by code but answers both with 401.
func writeLoginError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		switch appErr.Code {
		case apperrors.ErrCodeNotFound, apperrors.ErrCodeInvalidCredentials:
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
				Error: appErr.Message,
				Code:  appErr.Code,
			})
			return
		}
	}
	httputil.WriteError(w, err)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperrors.InvalidInput(name, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
