package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[IngestEventMessage]        = (*IngestEventCommand)(nil)
	_ gocmd.Commander[MarkEventProcessedMessage] = (*MarkEventProcessedCommand)(nil)
	_ gocmd.Commander[RequeueEventMessage]       = (*RequeueEventCommand)(nil)
	_ gocmd.Commander[ReplayDeadLetterMessage]   = (*ReplayDeadLetterCommand)(nil)
)
