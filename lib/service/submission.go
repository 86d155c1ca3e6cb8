package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"

	"apar/lib/compliance"
	"apar/lib/constants"
	"apar/lib/data"
	"apar/lib/models"
)

// Zone-less layouts are read in the configured location
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 or a zone-less date/time read in loc
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePositiveID parses a strictly positive integer id
func ParsePositiveID(value string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseLenientDecimal accepts a decimal comma; anything unparsable is null
func parseLenientDecimal(value string) decimal.NullDecimal {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if value == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseCoordinate nulls out values beyond +/-limit degrees
func parseCoordinate(value string, limit int64) decimal.NullDecimal {
	d := parseLenientDecimal(value)
	if !d.Valid || d.Decimal.Abs().GreaterThan(decimal.NewFromInt(limit)) {
		return decimal.NullDecimal{}
	}
	return d
}

func parsePressure(value string) *float64 {
	d := parseLenientDecimal(value)
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func parseProblemCount(value string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// validatePhotos enforces count, size and image content limits
func validatePhotos(photos []models.PhotoUpload, fields map[string]string) {
	if len(photos) > constants.MAX_PHOTOS_PER_INSPECTION {
		fields["photos"] = "max=" + strconv.Itoa(constants.MAX_PHOTOS_PER_INSPECTION)
		return
	}
	for i, photo := range photos {
		key := "photos[" + strconv.Itoa(i) + "]"
		switch {
		case len(photo.Data) == 0:
			fields[key] = "required"
		case len(photo.Data) > constants.MAX_PHOTO_BYTES:
			fields[key] = "max_size=10MiB"
		case !strings.HasPrefix(mimetype.Detect(photo.Data).String(), "image/"):
			fields[key] = "image"
		}
	}
}

// buildSubmission validates a decoded request without side effects
func buildSubmission(s *InspectionService, req *models.SubmitInspectionRequest) (*models.InspectionSubmission, error) {
	if err := ValidateStruct(s.Validate, req); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	sub := &models.InspectionSubmission{
		OfficerBadge:   data.NormalizeBadge(req.OfficerBadge),
		Condition:      strings.TrimSpace(req.Condition),
		ProblemNotes:   strings.TrimSpace(req.ProblemNotes),
		Recommendation: strings.TrimSpace(req.Recommendation),
		FollowUp:       strings.TrimSpace(req.FollowUp),
		Pressure:       parsePressure(req.Pressure),
		ProblemCount:   parseProblemCount(req.ProblemCount),
		Latitude:       parseCoordinate(req.Latitude, 90),
		Longitude:      parseCoordinate(req.Longitude, 180),
		ChecklistMode:  models.ChecklistModeDefault,
	}

	if id, ok := ParsePositiveID(req.EquipmentID); ok {
		sub.EquipmentID = id
	} else {
		fields["equipment_id"] = "positive_integer"
	}

	if sub.OfficerBadge == "" {
		fields["officer_badge"] = "required"
	}

	if t, ok := ParseTimestamp(req.Timestamp, s.Due.Location); ok {
		sub.InspectedAt = t
	} else {
		fields["timestamp"] = "datetime"
	}

	if strings.TrimSpace(req.IntervalOverride) != "" {
		if id, ok := ParsePositiveID(req.IntervalOverride); ok {
			sub.IntervalOverrideID = &id
		} else {
			fields["interval_id"] = "positive_integer"
		}
	}

	switch {
	case req.StrictChecklist && req.FillMissingAsPass:
		fields["checklist_mode"] = "exclusive"
	case req.StrictChecklist:
		sub.ChecklistMode = models.ChecklistModeStrict
	case req.FillMissingAsPass:
		sub.ChecklistMode = models.ChecklistModeFillMissing
	}

	answers, err := compliance.NormalizeChecklist(req.Checklist)
	if err != nil {
		fields["checklist"] = "json_array"
	}
	sub.Answers = answers

	validatePhotos(req.Photos, fields)

	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}
	return sub, nil
}
