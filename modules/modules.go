package modules

import (
	"github.com/msu-projects/sitio-portal/modules/logging"
	"github.com/msu-projects/sitio-portal/modules/registry"
	"github.com/msu-projects/sitio-portal/modules/review"
	"github.com/msu-projects/sitio-portal/pkg/application"
)

// BuiltInModules lists every module in registration order. Review comes last:
// it resolves services the other two register.
var BuiltInModules = []application.Module{
	logging.NewModule(),
	registry.NewModule(),
	review.NewModule(),
}

func Load(app application.Application) error {
	return application.Load(app, BuiltInModules...)
}
