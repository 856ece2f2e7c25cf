package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/msu-projects/sitio-portal/pkg/application"
	"github.com/msu-projects/sitio-portal/pkg/configuration"
	"github.com/msu-projects/sitio-portal/pkg/metrics"
	"github.com/msu-projects/sitio-portal/pkg/middleware"
)

// HTTPServer assembles the router from the application's registered
// controllers and middleware and serves it.
type HTTPServer struct {
	log  *logrus.Logger
	srv  *http.Server
	conf *configuration.Configuration
}

func New(app application.Application, conf *configuration.Configuration) *HTTPServer {
	r := mux.NewRouter()
	r.Use(middleware.WithPool(app.DB()))
	r.Use(middleware.RequestParams(conf))
	r.Use(middleware.UserFromHeaders(conf))
	r.Use(middleware.RequestLogger(app.Logger()))
	for _, m := range app.Middleware() {
		r.Use(m)
	}

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	for _, controller := range app.Controllers() {
		controller.Register(r)
		app.Logger().WithField("controller", controller.Key()).Debug("routes registered")
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &HTTPServer{
		log:  app.Logger(),
		conf: conf,
		srv: &http.Server{
			Addr:              conf.SocketAddress,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *HTTPServer) Start() error {
	s.log.WithField("address", s.conf.SocketAddress).Info("server listening")
	return s.srv.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
