package queue

const (
	TypeQueryAudit = "query:audit"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)
