package models

// All lists the models owned by the terminal database.
func All() []any {
	return []any{
		&CheckoutSession{},
		&CartLine{},
		&Shift{},
		&TransactionRecord{},
		&InventoryAdjustment{},
	}
}
