package review

import (
	loggingservices "github.com/msu-projects/sitio-portal/modules/logging/services"
	registryservices "github.com/msu-projects/sitio-portal/modules/registry/services"
	"github.com/msu-projects/sitio-portal/modules/review/handlers"
	"github.com/msu-projects/sitio-portal/modules/review/infrastructure/persistence"
	"github.com/msu-projects/sitio-portal/modules/review/presentation/controllers"
	"github.com/msu-projects/sitio-portal/modules/review/services"
	"github.com/msu-projects/sitio-portal/pkg/application"
)

// Module wires the review engine. It depends on the registry module for the
// live resource reader and on the logging module for the audit trail, so both
// must be registered first.
type Module struct{}

func NewModule() application.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return "review"
}

func (m *Module) Register(app application.Application) error {
	reader := app.Service(registryservices.ResourceReader{}).(*registryservices.ResourceReader)
	audit := app.Service(loggingservices.AuditService{}).(*loggingservices.AuditService)

	reviewService := services.NewReviewService(
		persistence.NewPendingChangeRepository(),
		reader,
		app.EventPublisher(),
	)

	app.RegisterServices(reviewService)
	app.RegisterControllers(controllers.NewPendingChangesController(app))
	handlers.RegisterAuditHandler(app.EventPublisher(), audit, app.Logger())
	return nil
}
