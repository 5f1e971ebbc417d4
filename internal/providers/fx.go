package providers

import (
	"github.com/smallbiznis/maidbook/internal/providers/calendar"
	"github.com/smallbiznis/maidbook/internal/providers/email"
	"github.com/smallbiznis/maidbook/internal/providers/payment"
	"github.com/smallbiznis/maidbook/internal/providers/pdf"
	"github.com/smallbiznis/maidbook/internal/providers/sms"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	calendar.Module,
	email.Module,
	payment.Module,
	pdf.Module,
	sms.Module,
)
