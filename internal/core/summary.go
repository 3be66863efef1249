package core

// TransactionRecord is a transaction joined with the category it belongs to,
// the unit every report aggregates over.
type TransactionRecord struct {
	TransactionID int64
	CategoryID    int64
	CategoryName  string
	CategoryType  CategoryType
	Amount        Money
	Date          Date
}
