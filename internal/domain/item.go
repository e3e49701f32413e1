package domain

// Item is a sellable ticket type with finite capacity. Price is in the
// smallest currency unit. Sold and Held are the ledger counters; the
// database enforces sold + held <= capacity.
type Item struct {
	ID       string
	Name     string
	Price    int64
	Capacity int
	Sold     int
	Held     int
}

// Available reports how many units can still be held.
func (i Item) Available() int {
	return i.Capacity - i.Sold - i.Held
}
