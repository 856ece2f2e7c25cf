package logging

import (
	"github.com/msu-projects/sitio-portal/modules/logging/infrastructure/persistence"
	"github.com/msu-projects/sitio-portal/modules/logging/services"
	"github.com/msu-projects/sitio-portal/pkg/application"
)

type Module struct{}

func NewModule() application.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return "logging"
}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewAuditService(persistence.NewAuditLogRepository()),
	)
	return nil
}
