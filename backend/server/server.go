package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	contextKey "github.com/leandrocarocca/habit-circle-demo/backend/server/context_key"
)

// jwtMiddleware is a middleware function that performs JWT validation.
//
// It reads the JWT from the Authorization header of the HTTP request. If a
// valid token is present, the middleware injects the user's id extracted from
// the token's claims into the request's context under contextKey.UserIDKey.
// Any parsing or validation error is injected under contextKey.JwtErrorKey
// instead.
//
// The middleware never stops the request itself and always calls the next
// http.Handler: it's up to the downstream handlers to interpret the context
// values and reject unauthenticated requests.
func jwtMiddleware(signingKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			splitToken := strings.Split(authHeader, "Bearer ")
			if len(splitToken) == 2 {
				token, err := jwt.Parse(splitToken[1], func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
					}
					return []byte(signingKey), nil
				})
				if err != nil {
					log.Println("Error occurred while parsing JWT token:", err)
					ctx := context.WithValue(r.Context(), contextKey.JwtErrorKey, err)
					r = r.WithContext(ctx)
				} else if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
					ctx := context.WithValue(r.Context(), contextKey.UserIDKey, claims["id"])
					r = r.WithContext(ctx)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware is a middleware function that recovers from panics and provides a generic error message to the client.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %s\n", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// newRouter builds the route table and wraps it with the JWT and recovery
// middleware. Split out of Start so the handlers can be exercised without
// binding a listener.
func newRouter(signingKey string, api *API) http.Handler {
	// Initialize a new router
	r := mux.NewRouter()

	// Authentication endpoints, open to unauthenticated callers
	r.HandleFunc("/auth/signup", api.handleSignUp).Methods("POST")
	r.HandleFunc("/auth/signin", api.handleSignIn).Methods("POST")
	r.HandleFunc("/auth/refresh", api.handleRefreshToken).Methods("POST")

	// Everything under /api requires a valid token
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(requireAuth)

	apiRouter.HandleFunc("/logs", api.handleGetDailyLog).Methods("GET")
	apiRouter.HandleFunc("/logs", api.handleUpsertDailyLog).Methods("POST")

	apiRouter.HandleFunc("/checkboxes", api.handleListCheckboxes).Methods("GET")
	apiRouter.HandleFunc("/checkboxes", api.handleCreateCheckbox).Methods("POST")
	apiRouter.HandleFunc("/checkboxes/{id}", api.handleUpdateCheckbox).Methods("PUT")
	apiRouter.HandleFunc("/checkboxes/{id}", api.handleDeleteCheckbox).Methods("DELETE")

	apiRouter.HandleFunc("/stats", api.handleStats).Methods("GET")
	apiRouter.HandleFunc("/stats/leaderboard", api.handleLeaderboard).Methods("GET")
	apiRouter.HandleFunc("/calendar", api.handleCalendar).Methods("GET")

	apiRouter.HandleFunc("/users/tracking-start", api.handleSetTrackingStart).Methods("PUT")

	apiRouter.HandleFunc("/groups", api.handleCreateGroup).Methods("POST")
	apiRouter.HandleFunc("/groups", api.handleListGroups).Methods("GET")

	apiRouter.HandleFunc("/invitations", api.handleCreateInvitation).Methods("POST")
	apiRouter.HandleFunc("/invitations/{id}", api.handleRespondInvitation).Methods("PUT")

	// Wrap the router with the JWT and recovery middleware
	return recoveryMiddleware(jwtMiddleware(signingKey, r))
}

// Start initializes and starts the REST server. Runs on localhost:8080 by default.
// The function requires a serverURL (the URL where the server must be deployed),
// the JWT signing key, and the API holding the server's dependencies.
func Start(serverURL, signingKey string, api *API) {
	protected := newRouter(signingKey, api)

	// Apply the CORS middleware to the router
	corsOrigins := handlers.AllowedOrigins([]string{"*"})
	corsMethods := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"})
	corsHeaders := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})

	// Wrap the router with the CORS middleware
	corsRouter := handlers.CORS(corsOrigins, corsMethods, corsHeaders)(protected)

	// Apply the logging middleware
	loggingRouter := handlers.LoggingHandler(os.Stdout, corsRouter)

	// Parsing the server url
	u, err := url.Parse(serverURL)
	if err != nil {
		panic(err)
	}

	// Start the server
	server := &http.Server{
		Handler:      loggingRouter,
		Addr:         u.Host,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

// requireAuth rejects any request whose context carries no authenticated user
// id. jwtMiddleware runs before the router, so by the time requireAuth sees
// the request the token has already been parsed.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(contextKey.UserIDKey).(string); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
