package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cloo-solutions/admitbot/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads the request body into dst and validates its tags.
// The returned message is safe to show to the caller.
func decodeJSON(r *http.Request, dst interface{}) (string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "request body too large", false
		}
		return "invalid request body", false
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err), false
	}
	return "", true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func listInput(r *http.Request) service.ListInput {
	in := service.ListInput{Cursor: r.URL.Query().Get("cursor")}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			in.Limit = limit
		}
	}
	return in
}
