package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gabriel-vasile/mimetype"

	"apar/lib/constants"
	"apar/lib/models"
)

// Accepted names for each submission field, canonical name first
var submissionAliases = map[string][]string{
	"equipment_id":         {"equipment_id", "equipmentId", "aparId", "apar_id"},
	"officer_badge":        {"officer_badge", "badge", "badgeNumber", "badge_number"},
	"timestamp":            {"timestamp", "tanggal", "inspected_at", "inspectedAt"},
	"condition":            {"condition", "kondisi"},
	"problem_notes":        {"problem_notes", "problemNotes", "catatanMasalah"},
	"recommendation":       {"recommendation", "rekomendasi"},
	"follow_up":            {"follow_up", "followUp", "tindakLanjut"},
	"pressure":             {"pressure", "tekanan"},
	"problem_count":        {"problem_count", "problemCount", "jumlahMasalah"},
	"latitude":             {"latitude", "lat"},
	"longitude":            {"longitude", "lng", "lon"},
	"interval_id":          {"interval_id", "intervalId", "intervalPetugasId"},
	"checklist":            {"checklist", "checklistAnswers"},
	"fill_missing_as_pass": {"fill_missing_as_pass", "fillMissingAsPass"},
	"strict_checklist":     {"strict_checklist", "strictChecklist"},
}

var photoFieldNames = []string{"photos", "fotos", "photo", "foto"}

// Header returns a request header regardless of the casing API Gateway delivered
func Header(request events.APIGatewayProxyRequest, name string) string {
	for key, value := range request.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// RequestBody returns the raw body, decoding it when API Gateway base64-encoded it
func RequestBody(request events.APIGatewayProxyRequest) ([]byte, error) {
	if !request.IsBase64Encoded {
		return []byte(request.Body), nil
	}
	body, err := base64.StdEncoding.DecodeString(request.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64", models.ErrInvalidInput)
	}
	return body, nil
}

// ParseJSONBody decodes a JSON request body into v
func ParseJSONBody(request events.APIGatewayProxyRequest, v interface{}) error {
	body, err := RequestBody(request)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// DecodeSubmission reads an inspection submission from a JSON or a
// multipart/form-data request
func DecodeSubmission(request events.APIGatewayProxyRequest) (*models.SubmitInspectionRequest, error) {
	body, err := RequestBody(request)
	if err != nil {
		return nil, err
	}

	mediaType, params, err := mime.ParseMediaType(Header(request, "Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return decodeMultipart(body, params["boundary"])
	}
	return decodeJSONSubmission(body)
}

type jsonPhoto struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

func decodeJSONSubmission(body []byte) (*models.SubmitInspectionRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, fmt.Errorf("%w: request body must be a JSON object", models.ErrInvalidInput)
	}

	lookup := func(field string) (json.RawMessage, bool) {
		for _, name := range submissionAliases[field] {
			if v, ok := raw[name]; ok && !isNull(v) {
				return v, true
			}
		}
		return nil, false
	}
	text := func(field string) string {
		v, _ := lookup(field)
		return scalarText(v)
	}

	req := newSubmission(text)
	if v, ok := lookup("checklist"); ok {
		req.Checklist = v
	}

	for _, name := range photoFieldNames {
		v, ok := raw[name]
		if !ok || isNull(v) {
			continue
		}
		var photos []jsonPhoto
		if err := json.Unmarshal(v, &photos); err != nil {
			return nil, &models.ValidationError{Fields: map[string]string{"photos": "json_array"}}
		}
		for i, p := range photos {
			data, err := base64.StdEncoding.DecodeString(p.Data)
			if err != nil {
				return nil, &models.ValidationError{Fields: map[string]string{"photos[" + strconv.Itoa(i) + "]": "base64"}}
			}
			req.Photos = append(req.Photos, newPhoto(p.FileName, p.ContentType, data))
		}
		break
	}
	return req, nil
}

func decodeMultipart(body []byte, boundary string) (*models.SubmitInspectionRequest, error) {
	if boundary == "" {
		return nil, fmt.Errorf("%w: multipart boundary missing", models.ErrInvalidInput)
	}

	values := map[string]string{}
	var photos []models.PhotoUpload
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed multipart body: %v", models.ErrInvalidInput, err)
		}

		// One byte over the limit is enough for validation to reject the file
		data, err := io.ReadAll(io.LimitReader(part, int64(constants.MAX_PHOTO_BYTES)+1))
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: malformed multipart body: %v", models.ErrInvalidInput, err)
		}

		name := part.FormName()
		if part.FileName() != "" || isPhotoField(name) {
			photos = append(photos, newPhoto(part.FileName(), part.Header.Get("Content-Type"), data))
			continue
		}
		if _, seen := values[name]; !seen {
			values[name] = string(data)
		}
	}

	text := func(field string) string {
		for _, name := range submissionAliases[field] {
			if v, ok := values[name]; ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
		return ""
	}

	req := newSubmission(text)
	if checklist := strings.TrimSpace(text("checklist")); checklist != "" {
		req.Checklist = json.RawMessage(checklist)
	}
	req.Photos = photos
	return req, nil
}

func newSubmission(text func(field string) string) *models.SubmitInspectionRequest {
	return &models.SubmitInspectionRequest{
		EquipmentID:       text("equipment_id"),
		OfficerBadge:      text("officer_badge"),
		Timestamp:         text("timestamp"),
		Condition:         text("condition"),
		ProblemNotes:      text("problem_notes"),
		Recommendation:    text("recommendation"),
		FollowUp:          text("follow_up"),
		Pressure:          text("pressure"),
		ProblemCount:      text("problem_count"),
		Latitude:          text("latitude"),
		Longitude:         text("longitude"),
		IntervalOverride:  text("interval_id"),
		FillMissingAsPass: truthy(text("fill_missing_as_pass")),
		StrictChecklist:   truthy(text("strict_checklist")),
	}
}

func newPhoto(fileName, contentType string, data []byte) models.PhotoUpload {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return models.PhotoUpload{FileName: fileName, ContentType: contentType, Data: data}
}

func isPhotoField(name string) bool {
	for _, n := range photoFieldNames {
		if name == n || name == n+"[]" {
			return true
		}
	}
	return false
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

// scalarText renders a JSON string, number or boolean as text
func scalarText(v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// PathSegments splits a request path into its non-empty segments
func PathSegments(path string) []string {
	segments := []string{}
	for _, s := range strings.Split(strings.Trim(path, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// ParseID parses a strictly positive path or query id
func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Fields: map[string]string{"id": "positive_integer"}}
	}
	return id, nil
}

// ParseIDList parses a comma-separated id list such as "12,13,14"
func ParseIDList(value string) ([]int64, error) {
	ids := []int64{}
	for _, s := range strings.Split(value, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || id <= 0 {
			return nil, &models.ValidationError{Fields: map[string]string{"ids": "positive_integer_list"}}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
