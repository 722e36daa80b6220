package record

// Normalized field names produced by the extraction service.
const (
	FieldSKU             = "sku"
	FieldQuantity        = "quantity"
	FieldLocation        = "location"
	FieldTimePeriod      = "time_period"
	FieldRevenue         = "revenue"
	FieldChannel         = "channel"
	FieldPurchaseOrderID = "purchase_order_id"
	FieldArrivalDate     = "arrival_date"
	FieldOrderDate       = "order_date"
	FieldCost            = "cost"
	FieldVendor          = "vendor"
	FieldHasArrived      = "has_arrived"
	FieldCategory        = "category"
	FieldPrice           = "price"
)
