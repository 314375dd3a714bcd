package domain

// AuditEventKind classifies entries in the audit trail.
type AuditEventKind string

const (
	AuditLinkCreated   AuditEventKind = "link_created"
	AuditLinkRefreshed AuditEventKind = "link_refreshed"
	AuditMintSubmitted AuditEventKind = "mint_submitted"
	AuditMintCompleted AuditEventKind = "mint_completed"
	AuditMintFailed    AuditEventKind = "mint_failed"
)

// AuditEvent is one append-only audit trail entry. Events are best-effort:
// a failed audit write never blocks the user-visible operation.
type AuditEvent struct {
	WalletAddress string
	Kind          AuditEventKind
	// Reference identifies the subject: an item ID for link events, a mint
	// record ID for mint events.
	Reference string
	Amount    float64 // 0 for link events
	Timestamp int64   // Unix ms
}
