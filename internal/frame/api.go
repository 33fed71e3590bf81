package frame

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/velotales/inkframe/apimodel"
	"github.com/velotales/inkframe/internal/frame/config"
	"github.com/velotales/inkframe/internal/frame/event"
	"github.com/velotales/inkframe/internal/tool"
	"github.com/velotales/inkframe/internal/version"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"
)

// Api is the https control endpoint of a frame on external power. It
// turns requests into events for the update loop.
type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.FrameConfig
}

func NewApi(config *config.FrameConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.FrameParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/status",
		func(w http.ResponseWriter, r *http.Request) {
			status := &apimodel.FrameStatus{
				Version:      version.App.String(),
				Panel:        config.FrameParam.DisplayParam.Panel,
				LastError:    config.FrameState.LastError(),
				BatteryLevel: config.FrameState.BatteryLevel(),
				PowerPlugged: config.FrameState.PowerPlugged(),
			}
			if lastRefresh := config.FrameState.LastRefresh(); !lastRefresh.IsZero() {
				status.LastRefresh = lastRefresh.Format(time.RFC3339)
			}
			if nextWake := config.FrameState.NextWake(); !nextWake.IsZero() {
				status.NextWake = nextWake.Format(time.RFC3339)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(status)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/refresh",
		func(w http.ResponseWriter, r *http.Request) {
			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventRefreshData{}}
			err := <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
			}
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.FrameParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) Start() {
	logrus.Infof("Start control api")

	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateSelfSignedCert(
			"inkframe",
			d.selfSignedKeyFilename(),
			d.selfSignedCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop control api")
	d.server.Shutdown(context.Background())
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := &apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}

	if title == "" {
		switch status {
		case http.StatusOK:
			errorMessage.ErrMessage = "Ok"
		case http.StatusNotFound:
			errorMessage.ErrMessage = "Page not found"
		case http.StatusMethodNotAllowed:
			errorMessage.ErrMessage = "Method not allowed"
		case http.StatusForbidden:
			errorMessage.ErrMessage = "Forbidden"
		case http.StatusServiceUnavailable:
			errorMessage.ErrMessage = "Service unavailable"
		case http.StatusBadRequest:
			errorMessage.ErrMessage = "Bad request"
		default:
			errorMessage.ErrMessage = "Internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorMessage)
}
