package documents

import (
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	"github.com/arsomjin/kbnsearch/internal/repository/docschema"
)

// Schema tables for the three searchable collections. Every field-name
// difference between collections lives here; the search engine only ever
// sees the canonical result shape.

var accountingSchema = docschema.Schema{
	Collection:        "incomes",
	DocType:           result.TypeAccounting,
	NumberField:       "incomeId",
	NameFields:        []string{"customerName", "customer"},
	LowerNameField:    "customerName_lower",
	CustomerIDField:   "customerId",
	AmountFields:      []string{"total", "amount"},
	DateField:         "created",
	StatusField:       "status",
	ProvinceField:     "provinceId",
	BranchField:       "branchCode",
	SalesPersonField:  "salesPerson",
	DescriptionFields: []string{"description", "remark"},
	ReferenceFields:   []string{"refNo"},
	KeywordFields:     []string{"incomeId", "customerName", "customerId", "refNo"},
	ScanFields: []string{
		"incomeId", "customerName", "customer", "description", "note", "remark", "refNo",
	},
	KeywordsField: "keywords",
	CreatedField:  "created",
}

var bookingSchema = docschema.Schema{
	Collection:        "bookings",
	DocType:           result.TypeBooking,
	NumberField:       "bookNo",
	NameFields:        []string{"firstName", "customerName", "customer"},
	LowerNameField:    "firstName_lower",
	CustomerIDField:   "customerId",
	AmountFields:      []string{"amtFull", "total"},
	DateField:         "date",
	StatusField:       "status",
	ProvinceField:     "provinceId",
	BranchField:       "branchCode",
	SalesPersonField:  "salesPerson",
	DescriptionFields: []string{"description", "remark"},
	ReferenceFields:   []string{"saleNo", "refNo"},
	KeywordFields:     []string{"bookNo", "firstName", "lastName", "customerId", "model"},
	ScanFields: []string{
		"bookNo", "firstName", "lastName", "customerName", "model",
		"description", "note", "remark", "saleNo",
	},
	KeywordsField: "keywords",
	CreatedField:  "created",
}

var vehicleSaleSchema = docschema.Schema{
	Collection:        "sales",
	DocType:           result.TypeSale,
	NumberField:       "saleNo",
	NameFields:        []string{"firstName", "customerName", "customer"},
	LowerNameField:    "firstName_lower",
	CustomerIDField:   "customerId",
	AmountFields:      []string{"amtReceived", "amtFull", "total"},
	DateField:         "date",
	StatusField:       "status",
	ProvinceField:     "provinceId",
	BranchField:       "branchCode",
	SalesPersonField:  "salesPerson",
	DescriptionFields: []string{"description", "remark"},
	ReferenceFields:   []string{"bookNo", "refNo"},
	KeywordFields:     []string{"saleNo", "firstName", "lastName", "customerId", "model"},
	ScanFields: []string{
		"saleNo", "firstName", "lastName", "customerName", "model",
		"description", "note", "remark", "bookNo",
	},
	KeywordsField: "keywords",
	CreatedField:  "created",
}
