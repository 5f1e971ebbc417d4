package cleaner

import (
	"github.com/smallbiznis/maidbook/internal/cleaner/repository"
	"github.com/smallbiznis/maidbook/internal/cleaner/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cleaner.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
