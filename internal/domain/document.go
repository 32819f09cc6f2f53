package domain

// document.go converts between stored documents (map[string]any, the shape
// JSON round-trips through) and the typed entities. All tolerance for legacy
// schema variants lives here: alternate key spellings, numbers stored as
// strings, flat vs nested payment fields.

import (
	"strconv"
	"strings"
	"time"
)

// RecordFromDocument normalizes a stored document into a Record.
//
// createdAt is the store-native creation timestamp. If it is missing or
// zero the current time is substituted; a record must always resolve to a
// valid creation date on read.
func RecordFromDocument(id string, data map[string]any, createdAt time.Time) Record {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	r := Record{
		ID:            id,
		AWBNumber:     docString(data, "awbNumber", "awbnumber"),
		ProductType:   docString(data, "productType"),
		NetWeight:     docFloat(data, "netWeight"),
		TareWeight:    docFloat(data, "tareWeight"),
		TotalWeight:   docFloat(data, "totalWeight"),
		Destination:   docString(data, "destination"),
		Shipper:       docString(data, "shipper"),
		PaymentStatus: docString(data, "paymentStatus"),
		CreatedAt:     createdAt,
	}

	if items, ok := data["products"].([]any); ok {
		r.Products = productsFromDoc(items)
	}

	if m, ok := data["senderDetails"].(map[string]any); ok {
		r.Sender = &SenderDetails{
			Name:          docString(m, "name"),
			Location:      docString(m, "location"),
			Phone:         docString(m, "phone"),
			Company:       docString(m, "company"),
			IDNumber:      docString(m, "idNumber"),
			JobTitle:      docString(m, "jobTitle"),
			StaffName:     docString(m, "staffName"),
			Functionality: docString(m, "functionality"),
		}
	}

	if m, ok := data["receiverDetails"].(map[string]any); ok {
		r.Receiver = &ReceiverDetails{
			Name:          docString(m, "name"),
			Town:          docString(m, "town"),
			Phone:         docString(m, "phone"),
			ExactLocation: docString(m, "exactLocation"),
			IDNumber:      docString(m, "idNumber"),
		}
	}

	if m, ok := data["deliveryInfo"].(map[string]any); ok {
		r.Delivery = &DeliveryInfo{
			DeliveryDate:        docTime(m, "deliveryDate"),
			VAT:                 docFloat(m, "vat"),
			AdditionalCharges:   docFloat(m, "additionalCharges"),
			SpecialInstructions: docString(m, "specialInstructions"),
			TotalAmount:         docFloat(m, "totalAmount"),
		}
	}

	if m, ok := data["paymentDetails"].(map[string]any); ok {
		r.Payment = &PaymentDetails{
			PaybillNo: docString(m, "paybillNo"),
			AccountNo: docString(m, "accountNo"),
			Status:    docString(m, "status"),
		}
	}

	return r
}

// Document flattens the record back to its stored shape. Zero-valued
// optional fields are omitted so old and new documents stay comparable.
func (r Record) Document() map[string]any {
	doc := map[string]any{}

	putString(doc, "awbNumber", r.AWBNumber)
	putString(doc, "productType", r.ProductType)
	putString(doc, "destination", r.Destination)
	putString(doc, "shipper", r.Shipper)
	putString(doc, "paymentStatus", r.PaymentStatus)
	putFloat(doc, "netWeight", r.NetWeight)
	putFloat(doc, "tareWeight", r.TareWeight)
	putFloat(doc, "totalWeight", r.TotalWeight)

	if len(r.Products) > 0 {
		items := make([]any, 0, len(r.Products))
		for _, p := range r.Products {
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
			items = append(items, item)
		}
		doc["products"] = items
	}

	if s := r.Sender; s != nil {
		m := map[string]any{}
		putString(m, "name", s.Name)
		putString(m, "location", s.Location)
		putString(m, "phone", s.Phone)
		putString(m, "company", s.Company)
		putString(m, "idNumber", s.IDNumber)
		putString(m, "jobTitle", s.JobTitle)
		putString(m, "staffName", s.StaffName)
		putString(m, "functionality", s.Functionality)
		doc["senderDetails"] = m
	}

	if rc := r.Receiver; rc != nil {
		m := map[string]any{}
		putString(m, "name", rc.Name)
		putString(m, "town", rc.Town)
		putString(m, "phone", rc.Phone)
		putString(m, "exactLocation", rc.ExactLocation)
		putString(m, "idNumber", rc.IDNumber)
		doc["receiverDetails"] = m
	}

	if d := r.Delivery; d != nil {
		m := map[string]any{}
		if d.DeliveryDate != nil {
			m["deliveryDate"] = d.DeliveryDate.Format(time.RFC3339)
		}
		putFloat(m, "vat", d.VAT)
		putFloat(m, "additionalCharges", d.AdditionalCharges)
		putString(m, "specialInstructions", d.SpecialInstructions)
		putFloat(m, "totalAmount", d.TotalAmount)
		doc["deliveryInfo"] = m
	}

	if p := r.Payment; p != nil {
		m := map[string]any{}
		putString(m, "paybillNo", p.PaybillNo)
		putString(m, "accountNo", p.AccountNo)
		putString(m, "status", p.Status)
		doc["paymentDetails"] = m
	}

	return doc
}

// LocationFromDocument normalizes a stored location document.
func LocationFromDocument(id string, data map[string]any) Location {
	return Location{
		ID:        id,
		Name:      docString(data, "name"),
		CreatedAt: docString(data, "createdAt"),
	}
}

// Document returns the stored shape of the location.
func (l Location) Document() map[string]any {
	return map[string]any{
		"name":      l.Name,
		"createdAt": l.CreatedAt,
	}
}

// UserProfileFromDocument normalizes a stored profile document.
func UserProfileFromDocument(id string, data map[string]any) UserProfile {
	return UserProfile{
		UID:             docString(data, "uid"),
		Email:           docString(data, "email"),
		Name:            docString(data, "name"),
		Role:            Role(docString(data, "role")),
		InitialPassword: docString(data, "initialPassword"),
	}
}

// Document returns the stored shape of the profile. InitialPassword is only
// written when present; callers decide whether to populate it at all.
func (u UserProfile) Document() map[string]any {
	doc := map[string]any{
		"uid":   u.UID,
		"email": u.Email,
		"name":  u.Name,
		"role":  string(u.Role),
	}
	putString(doc, "initialPassword", u.InitialPassword)
	return doc
}

// ---- coercion helpers ------------------------------------------------------

func productsFromDoc(items []any) []Product {
	products := make([]Product, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		products = append(products, Product{
			ProductType: docString(m, "productType"),
			Quantity:    docInt(m, "quantity"),
			Weight:      docFloatValue(m, "weight"),
			Length:      docFloatValue(m, "length"),
			Width:       docFloatValue(m, "width"),
			Height:      docFloatValue(m, "height"),
			TotalVolume: docFloatValue(m, "totalVolume"),
		})
	}
	return products
}

// docString returns the first present key as a string. Non-string scalars
// are ignored rather than stringified.
func docString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok {
			return s
		}
	}
	return ""
}

// docFloat returns a pointer so absence stays distinct from zero. JSON
// decodes numbers to float64, but old documents also carry numerics as
// strings.
func docFloat(data map[string]any, key string) *float64 {
	v, ok := data[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := coerceFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func docFloatValue(data map[string]any, key string) float64 {
	f, _ := coerceFloat(data[key])
	return f
}

func docInt(data map[string]any, key string) int {
	f, ok := coerceFloat(data[key])
	if !ok {
		return 0
	}
	return int(f)
}

func docTime(data map[string]any, key string) *time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return &v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", "01/02/2006"} {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	}
	return nil
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return parseFloat(n)
	default:
		return 0, false
	}
}

// parseFloat parses a user-supplied numeric string. Thousands separators
// are tolerated; anything else unparseable reports false.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func putString(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func putFloat(doc map[string]any, key string, value *float64) {
	if value != nil {
		doc[key] = *value
	}
}
