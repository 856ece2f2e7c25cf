package registry

import (
	"github.com/msu-projects/sitio-portal/modules/registry/infrastructure/persistence"
	"github.com/msu-projects/sitio-portal/modules/registry/presentation/controllers"
	"github.com/msu-projects/sitio-portal/modules/registry/services"
	"github.com/msu-projects/sitio-portal/pkg/application"
)

type Module struct{}

func NewModule() application.Module {
	return &Module{}
}

func (m *Module) Name() string {
	return "registry"
}

func (m *Module) Register(app application.Application) error {
	sitioService := services.NewSitioService(persistence.NewSitioRepository(), app.EventPublisher())
	projectService := services.NewProjectService(persistence.NewProjectRepository(), app.EventPublisher())

	app.RegisterServices(
		sitioService,
		projectService,
		services.NewResourceReader(sitioService, projectService),
	)
	app.RegisterControllers(
		controllers.NewSitiosController(app),
		controllers.NewProjectsController(app),
	)
	return nil
}
