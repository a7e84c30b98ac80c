package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"caseline/internal/engine"
	"caseline/internal/repo"
	"caseline/internal/signing"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	Signing  *signing.Workflow
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"validation_failed"`
	Message string         `json:"message" example:"case_pin is required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Caseline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Caseline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerCases(group, cfg.Engine)
	registerBadges(group, cfg.Engine)
	registerWorkspace(group, cfg.Engine)
	registerManagers(group, cfg.Engine)
	if cfg.Signing != nil {
		registerSigning(group, cfg.Signing)
		registerSigningDownloads(router, basePath, cfg.Signing)
	}
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), nil)
	}
	var cerr *engine.ConflictError
	if errors.As(err, &cerr) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	}
	var nferr *engine.NotFoundError
	if errors.As(err, &nferr) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var naerr *engine.NoAvailableManagerError
	if errors.As(err, &naerr) {
		return newAPIError(http.StatusServiceUnavailable, "no_available_manager", err.Error(), nil)
	}
	var derr *engine.DependencyError
	if errors.As(err, &derr) {
		return newAPIError(http.StatusBadGateway, "dependency_failed", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusBadGateway:
		return "dependency_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerBadges(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "badges",
		Method:      http.MethodGet,
		Path:        "/badges",
		Summary:     "Action Center badge counts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body badgesResponse `json:"body"`
	}, error) {
		counts := e.BadgeCounts(ctx)
		return &struct {
			Body badgesResponse `json:"body"`
		}{Body: badgesResponse{BadgeCounts: counts}}, nil
	})
}

func registerWorkspace(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "workspace-features",
		Method:      http.MethodGet,
		Path:        "/workspace/features",
		Summary:     "Feature flags for the authenticated case manager",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body featuresResponse `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		feats, err := e.WorkspaceFeatures(ctx, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body featuresResponse `json:"body"`
		}{Body: featuresResponse{Pin: pin, Features: feats}}, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	oas.Security = []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
}
