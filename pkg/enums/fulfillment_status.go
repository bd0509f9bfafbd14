package enums

// FulfillmentStatus mirrors the shipping state recorded once an order reaches Shopify.
type FulfillmentStatus string

const (
	// FulfillmentStatusPublishing marks an order whose create-order call is in
	// flight or whose outcome was never recorded.
	FulfillmentStatusPublishing   FulfillmentStatus = "publishing"
	FulfillmentStatusInvalidItems FulfillmentStatus = "invalid_items"
	FulfillmentStatusReadyToShip  FulfillmentStatus = "ready_to_ship"
)

// String implements fmt.Stringer.
func (s FulfillmentStatus) String() string {
	return string(s)
}
