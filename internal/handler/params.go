package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// pathUUID binds the {name} path parameter as a UUID. On failure it writes a
// 422 and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, fmt.Sprintf("invalid %s: %v", name, err))
		return uuid.Nil, false
	}
	return id, true
}

// queryParam binds a query parameter into dest. Optional parameters need a
// pointer-to-pointer dest that stays nil when the parameter is absent.
func queryParam(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		requestError(w, fmt.Sprintf("invalid %s: %v", name, err))
		return false
	}
	return true
}

// coordinates binds the required lat and lon query parameters.
func coordinates(w http.ResponseWriter, r *http.Request) (lat, lon float64, ok bool) {
	if !queryParam(w, r, "lat", true, &lat) || !queryParam(w, r, "lon", true, &lon) {
		return 0, 0, false
	}
	return lat, lon, true
}
