package web

import (
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
)

// recordJSON is the wire shape for a shipment record. Key names match the
// stored document schema so existing clients keep working unchanged.
type recordJSON struct {
	ID          string        `json:"id,omitempty"`
	AWBNumber   string        `json:"awbNumber,omitempty"`
	ProductType string        `json:"productType,omitempty"`
	Products    []productJSON `json:"products,omitempty"`

	NetWeight   *float64 `json:"netWeight,omitempty"`
	TareWeight  *float64 `json:"tareWeight,omitempty"`
	TotalWeight *float64 `json:"totalWeight,omitempty"`

	Destination string `json:"destination,omitempty"`
	Shipper     string `json:"shipper,omitempty"`

	Sender   *senderJSON   `json:"senderDetails,omitempty"`
	Receiver *receiverJSON `json:"receiverDetails,omitempty"`
	Delivery *deliveryJSON `json:"deliveryInfo,omitempty"`

	PaymentStatus string       `json:"paymentStatus,omitempty"`
	Payment       *paymentJSON `json:"paymentDetails,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type productJSON struct {
	ProductType string  `json:"productType"`
	Quantity    int     `json:"quantity"`
	Weight      float64 `json:"weight"`
	Length      float64 `json:"length,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	TotalVolume float64 `json:"totalVolume,omitempty"`
}

type senderJSON struct {
	Name          string `json:"name,omitempty"`
	Location      string `json:"location,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Company       string `json:"company,omitempty"`
	IDNumber      string `json:"idNumber,omitempty"`
	JobTitle      string `json:"jobTitle,omitempty"`
	StaffName     string `json:"staffName,omitempty"`
	Functionality string `json:"functionality,omitempty"`
}

type receiverJSON struct {
	Name          string `json:"name,omitempty"`
	Town          string `json:"town,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ExactLocation string `json:"exactLocation,omitempty"`
	IDNumber      string `json:"idNumber,omitempty"`
}

type deliveryJSON struct {
	DeliveryDate        *time.Time `json:"deliveryDate,omitempty"`
	VAT                 *float64   `json:"vat,omitempty"`
	AdditionalCharges   *float64   `json:"additionalCharges,omitempty"`
	SpecialInstructions string     `json:"specialInstructions,omitempty"`
	TotalAmount         *float64   `json:"totalAmount,omitempty"`
}

type paymentJSON struct {
	PaybillNo string `json:"paybillNo,omitempty"`
	AccountNo string `json:"accountNo,omitempty"`
	Status    string `json:"status,omitempty"`
}

func toRecordJSON(r domain.Record) recordJSON {
	out := recordJSON{
		ID:            r.ID,
		AWBNumber:     r.AWBNumber,
		ProductType:   r.ProductType,
		NetWeight:     r.NetWeight,
		TareWeight:    r.TareWeight,
		TotalWeight:   r.TotalWeight,
		Destination:   r.Destination,
		Shipper:       r.Shipper,
		PaymentStatus: r.PaymentStatus,
		CreatedAt:     r.CreatedAt,
	}
	for _, p := range r.Products {
		out.Products = append(out.Products, productJSON(p))
	}
	if r.Sender != nil {
		s := senderJSON(*r.Sender)
		out.Sender = &s
	}
	if r.Receiver != nil {
		rc := receiverJSON(*r.Receiver)
		out.Receiver = &rc
	}
	if r.Delivery != nil {
		d := deliveryJSON(*r.Delivery)
		out.Delivery = &d
	}
	if r.Payment != nil {
		p := paymentJSON(*r.Payment)
		out.Payment = &p
	}
	return out
}

func (in recordJSON) toDomain() domain.Record {
	r := domain.Record{
		ID:            in.ID,
		AWBNumber:     in.AWBNumber,
		ProductType:   in.ProductType,
		NetWeight:     in.NetWeight,
		TareWeight:    in.TareWeight,
		TotalWeight:   in.TotalWeight,
		Destination:   in.Destination,
		Shipper:       in.Shipper,
		PaymentStatus: in.PaymentStatus,
		CreatedAt:     in.CreatedAt,
	}
	for _, p := range in.Products {
		r.Products = append(r.Products, domain.Product(p))
	}
	if in.Sender != nil {
		s := domain.SenderDetails(*in.Sender)
		r.Sender = &s
	}
	if in.Receiver != nil {
		rc := domain.ReceiverDetails(*in.Receiver)
		r.Receiver = &rc
	}
	if in.Delivery != nil {
		d := domain.DeliveryInfo(*in.Delivery)
		r.Delivery = &d
	}
	if in.Payment != nil {
		p := domain.PaymentDetails(*in.Payment)
		r.Payment = &p
	}
	return r
}

// locationJSON is the wire shape for a warehouse location.
type locationJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toLocationJSON(l domain.Location) locationJSON {
	return locationJSON(l)
}

// userJSON is the wire shape for a staff profile. InitialPassword is only
// populated for admin callers.
type userJSON struct {
	UID             string `json:"uid"`
	Email           string `json:"email"`
	Name            string `json:"name,omitempty"`
	Role            string `json:"role"`
	InitialPassword string `json:"initialPassword,omitempty"`
}

func toUserJSON(u domain.UserProfile, includePassword bool) userJSON {
	out := userJSON{
		UID:   u.UID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
	if includePassword {
		out.InitialPassword = u.InitialPassword
	}
	return out
}
