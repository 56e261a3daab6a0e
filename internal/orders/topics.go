package orders

const (
	TopicOrderPlaced = "storefront.order.placed"
	TopicOrderStatus = "storefront.order.status"
)

// Partition key = order_id so every event for one order keeps its ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
