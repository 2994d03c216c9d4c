// Command mailbite turns commerce events into transactional emails and
// serves the resend and dev mailbox APIs.
package main

import (
	"context"

	"github.com/shandysiswandi/mailbite/internal/app"
)

func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()

	application.Stop(ctx)
}
