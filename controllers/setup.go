package controllers

import (
	"github.com/meinhoongagan/appointment-sync/calendar"
	"github.com/meinhoongagan/appointment-sync/scheduler"
)

var (
	coordinator  *scheduler.Coordinator
	orchestrator *calendar.Orchestrator
	tokens       *calendar.TokenStore
)

// Setup hands the engine services to the controller layer. Call once from
// main before registering routes.
func Setup(c *scheduler.Coordinator, o *calendar.Orchestrator, t *calendar.TokenStore) {
	coordinator = c
	orchestrator = o
	tokens = t
}
