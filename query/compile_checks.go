package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/mwesox/menuvo-payments/core"
)

var (
	_ gocmd.Querier[GetEventMessage, core.Event]          = (*GetEventQuery)(nil)
	_ gocmd.Querier[ListEventsMessage, ListEventsResult]  = (*ListEventsQuery)(nil)
	_ gocmd.Querier[QueueDepthMessage, int]               = (*QueueDepthQuery)(nil)
	_ gocmd.Querier[ListRegisteredTypesMessage, []string] = (*ListRegisteredTypesQuery)(nil)
)
