package service

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"apar/lib/constants"
	"apar/lib/models"
)

// QR image variants served by the external renderer
var qrVariants = []struct {
	name string
	size string
	ecc  string
}{
	{"small", "200x200", "M"},
	{"medium", "300x300", "M"},
	{"large", "400x400", "H"},
}

type qrPayload struct {
	Token         string `json:"token"`
	Code          string `json:"code"`
	Type          string `json:"type"`
	Location      string `json:"location"`
	EquipmentType string `json:"equipment_type"`
	IssuedAt      string `json:"issued_at"`
}

// QRInfo builds the printable QR payload of one unit and its image URLs
func (s *EquipmentService) QRInfo(ctx context.Context, equipmentID int64) (*models.QRInfo, error) {
	equipment, err := s.Equipment.GetEquipment(ctx, models.EquipmentKey{ID: equipmentID})
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(qrPayload{
		Token:         equipment.QRToken,
		Code:          equipment.Code,
		Type:          "equipment",
		Location:      equipment.LocationName,
		EquipmentType: equipment.TypeName,
		IssuedAt:      s.Due.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	base := s.QRServiceURL
	if base == "" {
		base = constants.DEFAULT_QR_SERVICE_URL
	}

	images := make(map[string]string, len(qrVariants))
	for _, v := range qrVariants {
		q := url.Values{}
		q.Set("size", v.size)
		q.Set("ecc", v.ecc)
		q.Set("format", "png")
		q.Set("data", string(payload))
		images[v.name] = base + "?" + q.Encode()
	}

	return &models.QRInfo{
		Token:        equipment.QRToken,
		Code:         equipment.Code,
		LocationName: equipment.LocationName,
		TypeName:     equipment.TypeName,
		Payload:      string(payload),
		ImageURLs:    images,
	}, nil
}
