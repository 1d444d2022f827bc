package domain

// UserRecords is every financial record held for one user.
type UserRecords struct {
	UserID       string              `json:"userId"`
	Transactions []Transaction       `json:"transactions,omitempty"`
	Budgets      []Budget            `json:"budgets,omitempty"`
	Goals        []Goal              `json:"goals,omitempty"`
	Holdings     []InvestmentHolding `json:"holdings,omitempty"`
	CreditScores []CreditScoreRecord `json:"creditScores,omitempty"`
}

// Count returns the total number of records.
func (u UserRecords) Count() int {
	return len(u.Transactions) + len(u.Budgets) + len(u.Goals) + len(u.Holdings) + len(u.CreditScores)
}
