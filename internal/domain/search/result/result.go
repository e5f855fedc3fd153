package result

// DocType identifies the source collection family of a result.
type DocType string

// Document types returned by the search engine.
const (
	TypeAccounting DocType = "accounting"
	TypeBooking    DocType = "booking"
	TypeSale       DocType = "sale"
)

// Result is the canonical, collection-agnostic search hit returned to
// callers regardless of the source collection's field naming. Date is epoch
// milliseconds. ID is unique within one search response; the merge pass
// enforces uniqueness keeping the first-seen occurrence.
type Result struct {
	ID             string  `json:"id"`
	DocumentNumber string  `json:"documentNumber"`
	CustomerName   string  `json:"customerName"`
	CustomerID     string  `json:"customerId,omitempty"`
	Amount         float64 `json:"amount"`
	Date           int64   `json:"date"`
	Status         string  `json:"status,omitempty"`
	ProvinceID     string  `json:"provinceId,omitempty"`
	BranchCode     string  `json:"branchCode,omitempty"`
	SalesPerson    string  `json:"salesPerson,omitempty"`
	Description    string  `json:"description,omitempty"`
	DocType        DocType `json:"documentType"`
	ReferenceNo    string  `json:"referenceDocumentNumber,omitempty"`
}
