package app

import (
	"context"

	"github.com/shandysiswandi/mailbite/internal/email"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.email.enabled") {
		return
	}

	sender, err := email.New(email.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Messaging:  a.messaging,
		Storage:    a.storage,
		Goroutine:  a.goroutine,
		Enforcer:   a.casbin,
		Router:     a.router,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	fatal(err, "failed to init email module")

	a.onClose("email transports", func(context.Context) error { return sender.Close() })
}
