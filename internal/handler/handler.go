package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/pkg/utils"
)

// newValidator reports field names by their json tag
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		utils.Error(w, apperrors.Validation(validationMessage(err)))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// pathID returns the {name} URL parameter when it is a UUID. Anything else
// cannot match a row, so it is answered with 404 for resource.
func pathID(w http.ResponseWriter, r *http.Request, name, resource string) (string, bool) {
	id := chi.URLParam(r, name)
	if !utils.IsValidUUID(id) {
		utils.NotFound(w, resource)
		return "", false
	}
	return id, true
}

func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if apiErr, ok := apperrors.As(err); ok {
		utils.Error(w, apiErr)
		return
	}

	if errors.Is(err, apperrors.ErrNoIdentity) {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
		"error", err,
	)
	utils.InternalError(w, "internal server error")
}
