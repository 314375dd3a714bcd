package domain

// AuthorityDisposition controls what happens to the mint authority after
// the initial supply is issued.
type AuthorityDisposition string

const (
	// AuthorityRetain keeps the payer as mint authority.
	AuthorityRetain AuthorityDisposition = "retain"
	// AuthorityTransfer hands the mint authority to the recipient.
	AuthorityTransfer AuthorityDisposition = "transfer"
)

// TokenParams carries the confirmed token creation parameters for one mint.
// It is transient: built from the creation wizard, consumed by the pipeline,
// never persisted.
type TokenParams struct {
	Name        string
	Symbol      string
	Description string

	// Supply is the requested supply as a decimal string, e.g. "500" or
	// "12.5". Scaled to integer base units by the pipeline.
	Supply   string
	Decimals uint8 // 0-18

	Authority AuthorityDisposition

	// Recipient is the base58 address receiving the initial supply. When
	// empty or unparseable the payer is substituted.
	Recipient string

	// FreezeAuthority, when true, sets the payer as freeze authority on the
	// new mint. When false the freeze authority is relinquished at creation.
	FreezeAuthority bool
}
