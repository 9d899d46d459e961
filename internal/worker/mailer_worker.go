package worker

import (
	"github.com/spec-kit/storefront-auth/internal/service"
)

// StartMailerWorker registers mail handlers on the event dispatcher.
func StartMailerWorker(mailerService *service.MailerService) {
	if mailerService == nil {
		return
	}
	mailerService.RegisterHandlers()
}
