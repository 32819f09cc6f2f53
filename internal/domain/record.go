// Package domain defines the entities managed by the back office: shipment
// records, warehouse locations, and staff profiles.
//
// Record is deliberately a superset of every shape the records collection
// has carried over time: old documents may have a flat paymentStatus while
// newer ones nest paymentDetails, sender sub-fields vary by schema version,
// and most fields are optional. Normalization between stored documents and
// this struct happens in one place (document.go), not in handlers.
package domain

import "time"

// Record is one shipment transaction.
type Record struct {
	ID          string
	AWBNumber   string
	ProductType string
	Products    []Product

	NetWeight   *float64
	TareWeight  *float64
	TotalWeight *float64

	Destination string
	Shipper     string

	Sender   *SenderDetails
	Receiver *ReceiverDetails
	Delivery *DeliveryInfo

	// PaymentStatus is the legacy flat field; Payment is the nested
	// variant. Either or both may be set on documents read from the store.
	PaymentStatus string
	Payment       *PaymentDetails

	CreatedAt time.Time
}

// Product is one line item on a record.
type Product struct {
	ProductType string
	Quantity    int
	Weight      float64
	Length      float64
	Width       float64
	Height      float64
	TotalVolume float64
}

// SenderDetails carries the sender sub-object. Field pairs like
// Location/Phone and Company/IDNumber come from different schema versions;
// whichever the document has is kept.
type SenderDetails struct {
	Name          string
	Location      string
	Phone         string
	Company       string
	IDNumber      string
	JobTitle      string
	StaffName     string
	Functionality string
}

// ReceiverDetails carries the receiver sub-object.
type ReceiverDetails struct {
	Name          string
	Town          string
	Phone         string
	ExactLocation string
	IDNumber      string
}

// DeliveryInfo carries delivery and charge information. Monetary fields are
// pointers: nil means "not recorded", which is distinct from zero.
type DeliveryInfo struct {
	DeliveryDate        *time.Time
	VAT                 *float64
	AdditionalCharges   *float64
	SpecialInstructions string
	TotalAmount         *float64
}

// PaymentDetails is the nested payment variant.
type PaymentDetails struct {
	PaybillNo string
	AccountNo string
	Status    string
}

// EffectivePaymentStatus returns the payment status regardless of which
// schema version the record came from.
func (r Record) EffectivePaymentStatus() string {
	if r.Payment != nil && r.Payment.Status != "" {
		return r.Payment.Status
	}
	return r.PaymentStatus
}

// TotalQuantity sums the quantity of every product line.
func (r Record) TotalQuantity() int {
	total := 0
	for _, p := range r.Products {
		total += p.Quantity
	}
	return total
}

// TotalProductWeight sums the weight of every product line.
func (r Record) TotalProductWeight() float64 {
	total := 0.0
	for _, p := range r.Products {
		total += p.Weight
	}
	return total
}
