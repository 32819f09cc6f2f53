package mapper

import (
	"errors"
	"testing"
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
)

func fptr(f float64) *float64 { return &f }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFlattenDerivedColumns(t *testing.T) {
	r := domain.Record{
		AWBNumber:   "AWB-100",
		ProductType: "Electronics",
		Products: []domain.Product{
			{ProductType: "Box", Quantity: 3, Weight: 2.5},
			{ProductType: "Crate", Quantity: 1, Weight: 10},
		},
		CreatedAt: date(2024, time.March, 15),
	}

	row := Flatten(r)

	tests := []struct {
		column string
		want   string
	}{
		{"TotalQuantity", "4"},
		{"TotalWeight", "12.50"},
		{"ProductSummary", "Box: 3 (2.50 kg); Crate: 1 (10.00 kg)"},
		{"CreatedAt", "03/15/2024"},
		{"AWBNumber", "AWB-100"},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if got := row[tt.column]; got != tt.want {
				t.Errorf("column %s = %q, want %q", tt.column, got, tt.want)
			}
		})
	}
}

func TestFlattenSentinelForMissing(t *testing.T) {
	r := domain.Record{
		ProductType: "Furniture",
		CreatedAt:   date(2024, time.January, 1),
	}

	row := Flatten(r)

	// Every column must be populated; missing scalars get the sentinel.
	for _, col := range Columns {
		if row[col] == "" {
			t.Errorf("column %s is empty, want value or sentinel", col)
		}
	}
	for _, col := range []string{"AWBNumber", "Destination", "SenderName", "VAT", "PaybillNo"} {
		if row[col] != Sentinel {
			t.Errorf("column %s = %q, want sentinel", col, row[col])
		}
	}
}

func TestFlattenTotalWeightFallback(t *testing.T) {
	tests := []struct {
		name   string
		record domain.Record
		want   string
	}{
		{
			name: "derived from products",
			record: domain.Record{
				Products:    []domain.Product{{Quantity: 1, Weight: 3.333}},
				TotalWeight: fptr(99),
			},
			want: "3.33",
		},
		{
			name:   "stored flat weight when no products",
			record: domain.Record{TotalWeight: fptr(42)},
			want:   "42.00",
		},
		{
			name:   "sentinel when neither",
			record: domain.Record{},
			want:   Sentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flatten(tt.record)["TotalWeight"]; got != tt.want {
				t.Errorf("TotalWeight = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnflattenRejectsMandatoryColumns(t *testing.T) {
	tests := []struct {
		name    string
		row     map[string]string
		wantErr error
	}{
		{
			name:    "missing created at",
			row:     map[string]string{"ProductType": "Box"},
			wantErr: ErrMissingCreatedAt,
		},
		{
			name:    "sentinel created at",
			row:     map[string]string{"ProductType": "Box", "CreatedAt": Sentinel},
			wantErr: ErrMissingCreatedAt,
		},
		{
			name:    "unparseable created at",
			row:     map[string]string{"ProductType": "Box", "CreatedAt": "not a date"},
			wantErr: ErrMissingCreatedAt,
		},
		{
			name:    "missing product type",
			row:     map[string]string{"CreatedAt": "01/02/2024"},
			wantErr: ErrMissingProductType,
		},
		{
			name: "bad products json",
			row: map[string]string{
				"CreatedAt":   "01/02/2024",
				"ProductType": "Box",
				"Products":    "{not json",
			},
			wantErr: ErrBadProducts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unflatten(tt.row)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Unflatten error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnflattenDateLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"03/15/2024", date(2024, time.March, 15)},
		{"3/5/2024", date(2024, time.March, 5)},
		{"2024-03-15", date(2024, time.March, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := Unflatten(map[string]string{
				"ProductType": "Box",
				"CreatedAt":   tt.input,
			})
			if err != nil {
				t.Fatalf("Unflatten: %v", err)
			}
			if !r.CreatedAt.Equal(tt.want) {
				t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, tt.want)
			}
		})
	}
}

// Weights always have a magnitude, so unreadable input is zero; monetary
// amounts may be unrecorded, so unreadable input stays nil.
func TestUnflattenWeightMoneyAsymmetry(t *testing.T) {
	r, err := Unflatten(map[string]string{
		"ProductType": "Box",
		"CreatedAt":   "01/02/2024",
		"NetWeight":   "garbage",
		"TareWeight":  Sentinel,
		"VAT":         "garbage",
		"TotalAmount": "$1,250.75",
	})
	if err != nil {
		t.Fatalf("Unflatten: %v", err)
	}

	if r.NetWeight == nil || *r.NetWeight != 0 {
		t.Errorf("NetWeight = %v, want pointer to 0", r.NetWeight)
	}
	if r.TareWeight == nil || *r.TareWeight != 0 {
		t.Errorf("TareWeight = %v, want pointer to 0", r.TareWeight)
	}
	if r.Delivery == nil {
		t.Fatal("Delivery = nil, want populated")
	}
	if r.Delivery.VAT != nil {
		t.Errorf("VAT = %v, want nil", *r.Delivery.VAT)
	}
	if r.Delivery.TotalAmount == nil || *r.Delivery.TotalAmount != 1250.75 {
		t.Errorf("TotalAmount = %v, want 1250.75", r.Delivery.TotalAmount)
	}
}

func TestUnflattenProductCoercion(t *testing.T) {
	r, err := Unflatten(map[string]string{
		"ProductType": "Box",
		"CreatedAt":   "01/02/2024",
		"Products":    `[{"productType":"Box","quantity":"3","weight":"2.5"},{"productType":"Bag","quantity":2,"weight":1.25}]`,
	})
	if err != nil {
		t.Fatalf("Unflatten: %v", err)
	}

	if len(r.Products) != 2 {
		t.Fatalf("got %d products, want 2", len(r.Products))
	}
	if r.Products[0].Quantity != 3 || r.Products[0].Weight != 2.5 {
		t.Errorf("string-typed product = %+v, want quantity 3 weight 2.5", r.Products[0])
	}
	if r.TotalQuantity() != 5 {
		t.Errorf("TotalQuantity = %d, want 5", r.TotalQuantity())
	}
}

func TestUnflattenPaymentShape(t *testing.T) {
	t.Run("nested when paybill present", func(t *testing.T) {
		r, err := Unflatten(map[string]string{
			"ProductType":   "Box",
			"CreatedAt":     "01/02/2024",
			"PaybillNo":     "522522",
			"PaymentStatus": "Paid",
		})
		if err != nil {
			t.Fatalf("Unflatten: %v", err)
		}
		if r.Payment == nil || r.Payment.Status != "Paid" {
			t.Fatalf("Payment = %+v, want nested status Paid", r.Payment)
		}
		if r.EffectivePaymentStatus() != "Paid" {
			t.Errorf("EffectivePaymentStatus = %q, want Paid", r.EffectivePaymentStatus())
		}
	})

	t.Run("flat when only status present", func(t *testing.T) {
		r, err := Unflatten(map[string]string{
			"ProductType":   "Box",
			"CreatedAt":     "01/02/2024",
			"PaymentStatus": "Pending",
		})
		if err != nil {
			t.Fatalf("Unflatten: %v", err)
		}
		if r.Payment != nil {
			t.Errorf("Payment = %+v, want nil", r.Payment)
		}
		if r.PaymentStatus != "Pending" {
			t.Errorf("PaymentStatus = %q, want Pending", r.PaymentStatus)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	original := domain.Record{
		AWBNumber:   "AWB-42",
		ProductType: "Electronics",
		Products:    []domain.Product{{ProductType: "Laptop", Quantity: 2, Weight: 1.5}},
		Destination: "Mombasa",
		Shipper:     "Acme Freight",
		Sender:      &domain.SenderDetails{Name: "Alice", Phone: "0700111222"},
		Receiver:    &domain.ReceiverDetails{Name: "Bob", Town: "Nakuru"},
		Delivery: &domain.DeliveryInfo{
			VAT:         fptr(16),
			TotalAmount: fptr(2500),
		},
		Payment:   &domain.PaymentDetails{PaybillNo: "522522", AccountNo: "99", Status: "Paid"},
		CreatedAt: date(2024, time.June, 1),
	}

	back, err := Unflatten(Flatten(original))
	if err != nil {
		t.Fatalf("Unflatten: %v", err)
	}

	if back.AWBNumber != original.AWBNumber {
		t.Errorf("AWBNumber = %q, want %q", back.AWBNumber, original.AWBNumber)
	}
	if !back.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", back.CreatedAt, original.CreatedAt)
	}
	if len(back.Products) != 1 || back.Products[0] != original.Products[0] {
		t.Errorf("Products = %+v, want %+v", back.Products, original.Products)
	}
	if back.Sender == nil || back.Sender.Name != "Alice" {
		t.Errorf("Sender = %+v, want Alice", back.Sender)
	}
	if back.Delivery == nil || back.Delivery.VAT == nil || *back.Delivery.VAT != 16 {
		t.Errorf("Delivery.VAT = %+v, want 16", back.Delivery)
	}
	if back.Payment == nil || back.Payment.Status != "Paid" {
		t.Errorf("Payment = %+v, want Paid", back.Payment)
	}
}

func TestFlattenValuesOrder(t *testing.T) {
	r := domain.Record{
		AWBNumber:   "AWB-1",
		ProductType: "Box",
		CreatedAt:   date(2024, time.May, 20),
	}

	values := FlattenValues(r)
	if len(values) != len(Columns) {
		t.Fatalf("got %d values, want %d", len(values), len(Columns))
	}
	if values[0] != "AWB-1" {
		t.Errorf("values[0] = %q, want AWB-1", values[0])
	}
	if values[len(values)-1] != "05/20/2024" {
		t.Errorf("last value = %q, want 05/20/2024", values[len(values)-1])
	}
}
