package timeslot

import (
	"github.com/smallbiznis/maidbook/internal/timeslot/repository"
	"github.com/smallbiznis/maidbook/internal/timeslot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("timeslot.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
