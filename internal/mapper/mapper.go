// Package mapper converts between the nested record shape and the flat
// tabular row shape used for spreadsheet exchange.
//
// Flatten never omits a column: a missing scalar becomes the "N/A"
// sentinel so every exported row has the full header width. Unflatten is
// the forgiving direction — it tolerates almost anything except a missing
// creation date or product type, which reject the row.
package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
)

// Sentinel is the placeholder written for missing scalar values.
const Sentinel = "N/A"

// DateLayout is the tabular date format (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// dateLayouts are accepted on parse. The export layout comes first; the
// others cover hand-edited spreadsheets.
var dateLayouts = []string{DateLayout, "1/2/2006", "2006-01-02"}

// Columns is the flat header, in export order.
var Columns = []string{
	"AWBNumber",
	"ProductType",
	"TotalQuantity",
	"TotalWeight",
	"ProductSummary",
	"Products",
	"NetWeight",
	"TareWeight",
	"Destination",
	"Shipper",
	"SenderName",
	"SenderLocation",
	"SenderPhone",
	"SenderCompany",
	"SenderIDNumber",
	"SenderJobTitle",
	"SenderStaffName",
	"SenderFunctionality",
	"ReceiverName",
	"ReceiverTown",
	"ReceiverPhone",
	"ReceiverExactLocation",
	"ReceiverIDNumber",
	"DeliveryDate",
	"VAT",
	"AdditionalCharges",
	"SpecialInstructions",
	"TotalAmount",
	"PaybillNo",
	"AccountNo",
	"PaymentStatus",
	"CreatedAt",
}

// Row-rejection errors. Import skips the row and keeps going.
var (
	ErrMissingCreatedAt   = errors.New("row has no usable creation date")
	ErrMissingProductType = errors.New("row has no product type")
	ErrBadProducts        = errors.New("products column is not a JSON array")
)

// Flatten converts a record to its flat row, keyed by Columns entries.
func Flatten(r domain.Record) map[string]string {
	row := map[string]string{
		"AWBNumber":           stringOrSentinel(r.AWBNumber),
		"ProductType":         stringOrSentinel(r.ProductType),
		"TotalQuantity":       strconv.Itoa(r.TotalQuantity()),
		"TotalWeight":         totalWeightCell(r),
		"ProductSummary":      stringOrSentinel(productSummary(r.Products)),
		"Products":            productsJSON(r.Products),
		"NetWeight":           floatOrSentinel(r.NetWeight),
		"TareWeight":          floatOrSentinel(r.TareWeight),
		"Destination":         stringOrSentinel(r.Destination),
		"Shipper":             stringOrSentinel(r.Shipper),
		"DeliveryDate":        Sentinel,
		"VAT":                 Sentinel,
		"AdditionalCharges":   Sentinel,
		"SpecialInstructions": Sentinel,
		"TotalAmount":         Sentinel,
		"PaybillNo":           Sentinel,
		"AccountNo":           Sentinel,
		"PaymentStatus":       stringOrSentinel(r.EffectivePaymentStatus()),
		"CreatedAt":           dateOrSentinel(&r.CreatedAt),
	}

	s := r.Sender
	if s == nil {
		s = &domain.SenderDetails{}
	}
	row["SenderName"] = stringOrSentinel(s.Name)
	row["SenderLocation"] = stringOrSentinel(s.Location)
	row["SenderPhone"] = stringOrSentinel(s.Phone)
	row["SenderCompany"] = stringOrSentinel(s.Company)
	row["SenderIDNumber"] = stringOrSentinel(s.IDNumber)
	row["SenderJobTitle"] = stringOrSentinel(s.JobTitle)
	row["SenderStaffName"] = stringOrSentinel(s.StaffName)
	row["SenderFunctionality"] = stringOrSentinel(s.Functionality)

	rc := r.Receiver
	if rc == nil {
		rc = &domain.ReceiverDetails{}
	}
	row["ReceiverName"] = stringOrSentinel(rc.Name)
	row["ReceiverTown"] = stringOrSentinel(rc.Town)
	row["ReceiverPhone"] = stringOrSentinel(rc.Phone)
	row["ReceiverExactLocation"] = stringOrSentinel(rc.ExactLocation)
	row["ReceiverIDNumber"] = stringOrSentinel(rc.IDNumber)

	if d := r.Delivery; d != nil {
		row["DeliveryDate"] = dateOrSentinel(d.DeliveryDate)
		row["VAT"] = floatOrSentinel(d.VAT)
		row["AdditionalCharges"] = floatOrSentinel(d.AdditionalCharges)
		row["SpecialInstructions"] = stringOrSentinel(d.SpecialInstructions)
		row["TotalAmount"] = floatOrSentinel(d.TotalAmount)
	}

	if p := r.Payment; p != nil {
		row["PaybillNo"] = stringOrSentinel(p.PaybillNo)
		row["AccountNo"] = stringOrSentinel(p.AccountNo)
	}

	return row
}

// FlattenValues returns the row's cells in Columns order, for CSV output.
func FlattenValues(r domain.Record) []string {
	row := Flatten(r)
	values := make([]string, len(Columns))
	for i, col := range Columns {
		values[i] = row[col]
	}
	return values
}

// Unflatten converts a flat row back into a record.
//
// The creation date and product type are the only mandatory cells; a row
// missing either is rejected. Everything else degrades: unparseable
// optional dates become nil, integers fall back to 0, weights fall back to
// 0, and monetary amounts fall back to nil. The weight/monetary asymmetry
// is deliberate — a shipment always has a magnitude, but an unrecorded
// amount is not a zero amount.
func Unflatten(row map[string]string) (domain.Record, error) {
	createdAt := parseDate(cell(row, "CreatedAt"))
	if createdAt == nil {
		return domain.Record{}, ErrMissingCreatedAt
	}

	productType := cell(row, "ProductType")
	if productType == "" {
		return domain.Record{}, ErrMissingProductType
	}

	products, err := parseProducts(cell(row, "Products"))
	if err != nil {
		return domain.Record{}, err
	}

	r := domain.Record{
		AWBNumber:   cell(row, "AWBNumber"),
		ProductType: productType,
		Products:    products,
		NetWeight:   weightPtr(cell(row, "NetWeight")),
		TareWeight:  weightPtr(cell(row, "TareWeight")),
		TotalWeight: weightPtr(cell(row, "TotalWeight")),
		Destination: cell(row, "Destination"),
		Shipper:     cell(row, "Shipper"),
		CreatedAt:   *createdAt,
	}

	sender := domain.SenderDetails{
		Name:          cell(row, "SenderName"),
		Location:      cell(row, "SenderLocation"),
		Phone:         cell(row, "SenderPhone"),
		Company:       cell(row, "SenderCompany"),
		IDNumber:      cell(row, "SenderIDNumber"),
		JobTitle:      cell(row, "SenderJobTitle"),
		StaffName:     cell(row, "SenderStaffName"),
		Functionality: cell(row, "SenderFunctionality"),
	}
	if sender != (domain.SenderDetails{}) {
		r.Sender = &sender
	}

	receiver := domain.ReceiverDetails{
		Name:          cell(row, "ReceiverName"),
		Town:          cell(row, "ReceiverTown"),
		Phone:         cell(row, "ReceiverPhone"),
		ExactLocation: cell(row, "ReceiverExactLocation"),
		IDNumber:      cell(row, "ReceiverIDNumber"),
	}
	if receiver != (domain.ReceiverDetails{}) {
		r.Receiver = &receiver
	}

	delivery := domain.DeliveryInfo{
		DeliveryDate:        parseDate(cell(row, "DeliveryDate")),
		VAT:                 moneyPtr(cell(row, "VAT")),
		AdditionalCharges:   moneyPtr(cell(row, "AdditionalCharges")),
		SpecialInstructions: cell(row, "SpecialInstructions"),
		TotalAmount:         moneyPtr(cell(row, "TotalAmount")),
	}
	if delivery != (domain.DeliveryInfo{}) {
		r.Delivery = &delivery
	}

	payment := domain.PaymentDetails{
		PaybillNo: cell(row, "PaybillNo"),
		AccountNo: cell(row, "AccountNo"),
		Status:    cell(row, "PaymentStatus"),
	}
	if payment.PaybillNo != "" || payment.AccountNo != "" {
		r.Payment = &payment
	} else {
		r.PaymentStatus = payment.Status
	}

	return r, nil
}

// ---- flatten helpers -------------------------------------------------------

// totalWeightCell is the derived product-weight sum when the record has
// product lines, falling back to the stored flat totalWeight for legacy
// records, then to the sentinel.
func totalWeightCell(r domain.Record) string {
	if len(r.Products) > 0 {
		return fmt.Sprintf("%.2f", r.TotalProductWeight())
	}
	return floatOrSentinel(r.TotalWeight)
}

// productSummary renders "<type>: <qty> (<weight> kg)" per product, joined
// by "; ".
func productSummary(products []domain.Product) string {
	if len(products) == 0 {
		return ""
	}
	parts := make([]string, len(products))
	for i, p := range products {
		parts[i] = fmt.Sprintf("%s: %d (%.2f kg)", p.ProductType, p.Quantity, p.Weight)
	}
	return strings.Join(parts, "; ")
}

// productsJSON renders the machine-readable product column. Always valid
// JSON so the column re-imports cleanly.
func productsJSON(products []domain.Product) string {
	items := make([]map[string]any, len(products))
	for i, p := range products {
		item := map[string]any{
			"productType": p.ProductType,
			"quantity":    p.Quantity,
			"weight":      p.Weight,
		}
		if p.Length != 0 {
			item["length"] = p.Length
		}
		if p.Width != 0 {
			item["width"] = p.Width
		}
		if p.Height != 0 {
			item["height"] = p.Height
		}
		if p.TotalVolume != 0 {
			item["totalVolume"] = p.TotalVolume
		}
		items[i] = item
	}
	// Marshal of plain maps cannot fail.
	b, _ := json.Marshal(items)
	return string(b)
}

func stringOrSentinel(s string) string {
	if strings.TrimSpace(s) == "" {
		return Sentinel
	}
	return s
}

func floatOrSentinel(f *float64) string {
	if f == nil {
		return Sentinel
	}
	return fmt.Sprintf("%.2f", *f)
}

func dateOrSentinel(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Sentinel
	}
	return t.Format(DateLayout)
}

// ---- unflatten helpers -----------------------------------------------------

// cell reads a column value, treating the sentinel as absent.
func cell(row map[string]string, column string) string {
	v := strings.TrimSpace(row[column])
	if v == Sentinel {
		return ""
	}
	return v
}

// parseDate returns nil for blank or unparseable input.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseProducts decodes the JSON product column. Blank means no products;
// anything present must decode to an array or the row is rejected.
func parseProducts(raw string) ([]domain.Product, error) {
	if raw == "" {
		return nil, nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, ErrBadProducts
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		products = append(products, domain.Product{
			ProductType: anyString(item["productType"]),
			Quantity:    anyInt(item["quantity"]),
			Weight:      anyFloat(item["weight"]),
			Length:      anyFloat(item["length"]),
			Width:       anyFloat(item["width"]),
			Height:      anyFloat(item["height"]),
			TotalVolume: anyFloat(item["totalVolume"]),
		})
	}
	return products, nil
}

// weightPtr parses with always-has-a-magnitude semantics: blank or invalid
// input is 0, not absent.
func weightPtr(s string) *float64 {
	f := anyFloat(s)
	return &f
}

// moneyPtr parses with optional-amount semantics: blank or invalid input
// stays nil.
func moneyPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	f, ok := parseNumeric(s)
	if !ok {
		return nil
	}
	return &f
}

func anyString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// anyInt integer-parses product quantities, which arrive as JSON numbers or
// as strings, defaulting to 0.
func anyInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if f, ok := parseNumeric(n); ok {
			return int(f)
		}
	}
	return 0
}

func anyFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, ok := parseNumeric(n); ok {
			return f
		}
	}
	return 0
}

// parseNumeric cleans common spreadsheet artifacts (currency symbols,
// thousands separators) before parsing.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, symbol := range []string{"$", "€", "£", ","} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
