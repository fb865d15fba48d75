package domain

// PaymentEvent is an inbound, possibly duplicated payment notification.
// TransactionID may be empty on legacy gateway versions; Correlation then
// carries either a bare account id or a TX_<accountID>_<epochMillis> token.
type PaymentEvent struct {
	TransactionID string
	Status        string
	Correlation   string
}
