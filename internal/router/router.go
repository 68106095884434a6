// Package router wires the HTTP endpoints to the service layer and maps
// service errors onto HTTP statuses. All failures are surfaced to the client
// as an {"error": ...} JSON body.
package router

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/strkeeper/internal/gzippedhttp"
	"github.com/patric-chuzhbe/strkeeper/internal/ipchecker"
	"github.com/patric-chuzhbe/strkeeper/internal/logger"
	"github.com/patric-chuzhbe/strkeeper/internal/models"
	"github.com/patric-chuzhbe/strkeeper/internal/session"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Service is the consumer-side view of the business logic layer.
type Service interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	CreateString(ctx context.Context, sess *session.Session, name, content string) (*models.StringRecord, error)
	GetString(ctx context.Context, sess *session.Session, name string) (*models.StringRecord, error)
	ListStrings(ctx context.Context, sess *session.Session) ([]models.StringRecord, error)
	GetProfile(ctx context.Context, sess *session.Session) (models.Profile, error)
	Stats(ctx context.Context) (models.InternalStatsResponse, error)
	Ping(ctx context.Context) error
}

// Router bundles the handlers' dependencies: the service and the
// trusted-subnet checker for the internal stats endpoint.
type Router struct {
	service   Service
	ipChecker *ipchecker.IPChecker
}

// New assembles the chi mux with the middleware chains and all routes.
func New(
	svc Service,
	sessions *session.Manager,
	ipChecker *ipchecker.IPChecker,
) http.Handler {
	myRouter := &Router{
		service:   svc,
		ipChecker: ipChecker,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
	)

	router.Get(`/`, myRouter.GetIndex)
	router.Get(`/ping`, myRouter.GetPing)
	router.Get(`/api/internal/stats`, myRouter.GetInternalStats)

	router.Group(func(r chi.Router) {
		r.Use(gzippedhttp.GzipResponse, sessions.WithSession)
		r.Post(`/register`, myRouter.PostRegister)
		r.Post(`/login`, myRouter.PostLogin)
		r.Post(`/logout`, myRouter.PostLogout)
		r.Post(`/strings`, myRouter.PostStrings)
		r.Get(`/strings`, myRouter.GetStrings)
		r.Get(`/strings/{name}`, myRouter.GetStringByName)
		r.Get(`/profile`, myRouter.GetProfile)
	})

	return router
}

// GetIndex renders the landing page.
func (rt *Router) GetIndex(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(response, nil); err != nil {
		logger.Log.Debugln("Error calling the `indexTemplate.Execute()`: ", zap.Error(err))
	}
}

// GetPing reports the storage health.
func (rt *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rt.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `service.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// PostRegister creates a new user from a {username, password} JSON body.
func (rt *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	var registerRequest models.RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&registerRequest); err != nil {
		writeError(response, models.ErrInvalidInput)
		return
	}

	userID, err := rt.service.Register(request.Context(), registerRequest.Username, registerRequest.Password)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.RegisterResponse{
		Message: "User created successfully",
		UserID:  userID,
	})
}

// PostLogin verifies the credentials and populates the session.
func (rt *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&loginRequest); err != nil {
		writeError(response, models.ErrInvalidInput)
		return
	}

	userID, err := rt.service.Login(request.Context(), loginRequest.Username, loginRequest.Password)
	if err != nil {
		writeError(response, err)
		return
	}

	sess := session.FromContext(request.Context())
	sess.Set(session.UserIDAttribute, userID)

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "Login successful"})
}

// PostLogout clears every session attribute.
func (rt *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	sess := session.FromContext(request.Context())
	sess.Clear()

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

// PostStrings stores a new named string owned by the session's user.
func (rt *Router) PostStrings(response http.ResponseWriter, request *http.Request) {
	var createRequest models.CreateStringRequest
	if err := json.NewDecoder(request.Body).Decode(&createRequest); err != nil {
		writeError(response, models.ErrInvalidInput)
		return
	}

	record, err := rt.service.CreateString(
		request.Context(),
		session.FromContext(request.Context()),
		createRequest.Name,
		createRequest.Content,
	)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.CreateStringResponse{
		Message:  "String created successfully",
		StringID: record.ID,
	})
}

// GetStringByName returns the session user's string with the given name.
func (rt *Router) GetStringByName(response http.ResponseWriter, request *http.Request) {
	name := chi.URLParam(request, "name")

	record, err := rt.service.GetString(request.Context(), session.FromContext(request.Context()), name)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.StringResponse{
		Name:    record.Name,
		Content: record.Content,
	})
}

// GetStrings lists every string owned by the session's user.
func (rt *Router) GetStrings(response http.ResponseWriter, request *http.Request) {
	records, err := rt.service.ListStrings(request.Context(), session.FromContext(request.Context()))
	if err != nil {
		writeError(response, err)
		return
	}

	strings := funk.Map(records, func(record models.StringRecord) models.StringResponse {
		return models.StringResponse{
			Name:    record.Name,
			Content: record.Content,
		}
	}).([]models.StringResponse)

	writeJSON(response, http.StatusOK, models.StringsListResponse{Strings: strings})
}

// GetProfile returns the session user's id and username.
func (rt *Router) GetProfile(response http.ResponseWriter, request *http.Request) {
	profile, err := rt.service.GetProfile(request.Context(), session.FromContext(request.Context()))
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.ProfileResponse{
		UserID:   profile.UserID,
		Username: profile.Username,
	})
}

// GetInternalStats serves the user/string counters to callers inside the
// trusted subnet only.
func (rt *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	if rt.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := rt.ipChecker.GetClientIP(request)
	if err != nil || !rt.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := rt.service.Stats(request.Context())
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.Encoder.Encode()`: ", zap.Error(err))
	}
}

// writeError maps the error kinds from the models package onto HTTP statuses
// and reports everything else as an opaque 500.
func writeError(response http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrConflict):
		status = http.StatusBadRequest
		message = err.Error()

	case errors.Is(err, models.ErrInvalidCredentials) ||
		errors.Is(err, models.ErrUnauthenticated) ||
		errors.Is(err, models.ErrOwnershipViolation):
		status = http.StatusUnauthorized
		message = err.Error()

	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()

	default:
		logger.Log.Debugln("unexpected handler error: ", zap.Error(err))
	}

	writeJSON(response, status, models.ErrorResponse{Error: message})
}
