package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/poofware/liszt-service/internal/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errTrailingData is returned for bodies holding more than one JSON value.
var errTrailingData = errors.New("unexpected data after JSON object")

// decodeBody reads a single JSON value into dst. An empty body decodes to
// the zero value so that missing fields surface as validation errors.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeSingle(r.Body, dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return false
	}
	return validateRequest(w, dst)
}

func decodeSingle(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func validateRequest(w http.ResponseWriter, req any) bool {
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, validationMessage(err), nil, err,
		)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field() + " parameter is required"
	}
	return "Invalid request parameters"
}
