package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"apar/lib/compliance"
	"apar/lib/data"
	"apar/lib/models"
	"apar/lib/storage"
)

// InspectionService is the only mutation path for inspection records
type InspectionService struct {
	Tx          data.Transactor
	Inspections data.InspectionRepository
	Equipment   data.EquipmentRepository
	Officers    data.OfficerRepository
	Intervals   data.IntervalRepository
	Checklists  *ChecklistCatalog
	Photos      storage.PhotoStore
	Due         *compliance.DueCalculator
	Validate    *validator.Validate
	Logger      *logrus.Logger
}

// Submit validates a submission and records it atomically. Photos written
// before a failure are deleted when the transaction rolls back.
func (s *InspectionService) Submit(ctx context.Context, req *models.SubmitInspectionRequest) (*models.SubmissionResult, error) {
	sub, err := buildSubmission(s, req)
	if err != nil {
		return nil, err
	}

	logger := s.Logger.WithFields(logrus.Fields{
		"operation":    "SubmitInspection",
		"equipment_id": sub.EquipmentID,
		"badge":        sub.OfficerBadge,
	})

	equipment, err := s.Equipment.GetEquipment(ctx, models.EquipmentKey{ID: sub.EquipmentID})
	if err != nil {
		return nil, err
	}

	officer, err := s.Officers.GetOfficerByBadge(ctx, sub.OfficerBadge)
	if err != nil {
		return nil, err
	}

	var override *models.Interval
	if sub.IntervalOverrideID != nil {
		override, err = s.Intervals.GetIntervalByID(ctx, *sub.IntervalOverrideID)
		if err != nil {
			return nil, err
		}
		if override == nil {
			return nil, &models.ValidationError{Fields: map[string]string{"interval_id": "exists"}}
		}
	}
	resolution := compliance.ResolveWithOverride(override, &officer.OfficerIntervals, equipment.DefaultIntervalMonths)

	items, err := s.Checklists.Items(ctx, equipment.TypeID)
	if err != nil {
		return nil, err
	}
	answers, rejected := compliance.FilterByType(sub.Answers, items)
	if sub.ChecklistMode == models.ChecklistModeFillMissing {
		answers = compliance.FillMissingAsPass(answers, items)
	}
	if len(rejected) > 0 {
		logger.WithFields(logrus.Fields{
			"type_id":  equipment.TypeID,
			"rejected": rejected,
			"mode":     sub.ChecklistMode,
		}).Warn("Checklist answers reference items outside the equipment type")
	}

	inspection := &models.Inspection{
		EquipmentID:    equipment.ID,
		OfficerBadge:   officer.BadgeNumber,
		InspectedAt:    sub.InspectedAt,
		IntervalID:     resolution.IntervalID,
		IntervalMonths: resolution.Months,
		IntervalSource: resolution.Source,
		Condition:      sub.Condition,
		ProblemNotes:   sub.ProblemNotes,
		Recommendation: sub.Recommendation,
		FollowUp:       sub.FollowUp,
		Pressure:       sub.Pressure,
		ProblemCount:   sub.ProblemCount,
		Latitude:       sub.Latitude,
		Longitude:      sub.Longitude,
	}

	var photoRefs []string
	err = s.Tx.RunInTx(ctx, func(scope *data.TxScope) error {
		photoRefs = photoRefs[:0]
		for _, photo := range req.Photos {
			path, err := s.Photos.Save(ctx, equipment.ID, photo)
			if err != nil {
				return fmt.Errorf("%w: failed to store photo: %v", models.ErrPersistence, err)
			}
			scope.OnRollback(s.deletePhotoHook(path))
			photoRefs = append(photoRefs, path)
		}

		if err := s.Inspections.InsertInspection(ctx, scope.Tx, inspection); err != nil {
			return err
		}

		if sub.ChecklistMode == models.ChecklistModeStrict && len(rejected) > 0 {
			return &models.ValidationError{Fields: map[string]string{
				"checklist": fmt.Sprintf("items %v do not belong to equipment type %d", rejected, equipment.TypeID),
			}}
		}
		if err := s.Inspections.InsertChecklistAnswers(ctx, scope.Tx, inspection.ID, answers); err != nil {
			return err
		}

		if len(photoRefs) > 0 {
			if _, err := s.Inspections.InsertPhotos(ctx, scope.Tx, inspection.ID, photoRefs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Inspection submission rolled back")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"inspection_id":   inspection.ID,
		"interval_months": resolution.Months,
		"interval_source": resolution.Source,
		"answers":         len(answers),
		"photos":          len(photoRefs),
	}).Info("Successfully recorded inspection")

	return &models.SubmissionResult{
		InspectionID:   inspection.ID,
		IntervalIDUsed: resolution.IntervalID,
		IntervalMonths: resolution.Months,
		IntervalSource: resolution.Source,
		PhotoRefs:      append([]string{}, photoRefs...),
	}, nil
}

func (s *InspectionService) deletePhotoHook(path string) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := s.Photos.Delete(ctx, path); err != nil {
			s.Logger.WithFields(logrus.Fields{
				"photo_path": path,
				"error":      err.Error(),
			}).Warn("Failed to delete photo after rollback")
		}
	}
}

// History lists every inspection of one equipment unit, newest first, with
// the next-due date as it stood at submission time.
func (s *InspectionService) History(ctx context.Context, equipmentID int64) ([]models.InspectionRecord, error) {
	if _, err := s.Equipment.GetEquipment(ctx, models.EquipmentKey{ID: equipmentID}); err != nil {
		return nil, err
	}

	records, err := s.Inspections.ListHistory(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].NextDueAtTime = s.Due.NextDue(&records[i].InspectedAt, records[i].IntervalMonths)
	}
	return records, nil
}

// Detail returns one inspection with its answers and photos
func (s *InspectionService) Detail(ctx context.Context, inspectionID int64) (*models.InspectionDetail, error) {
	record, err := s.Inspections.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	record.NextDueAtTime = s.Due.NextDue(&record.InspectedAt, record.IntervalMonths)

	answers, err := s.Inspections.GetChecklistAnswers(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	photos, err := s.Inspections.GetPhotos(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	for i := range photos {
		url, err := s.Photos.URL(ctx, photos[i].Path)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"inspection_id": inspectionID,
				"photo_path":    photos[i].Path,
				"error":         err.Error(),
			}).Warn("Failed to build photo URL")
			continue
		}
		photos[i].URL = url
	}

	return &models.InspectionDetail{
		Inspection:       *record,
		ChecklistAnswers: answers,
		Photos:           photos,
	}, nil
}

// Delete removes an inspection in one transaction and its photo objects after commit
func (s *InspectionService) Delete(ctx context.Context, inspectionID int64) error {
	var paths []string
	err := s.Tx.RunInTx(ctx, func(scope *data.TxScope) error {
		var err error
		paths, err = s.Inspections.DeleteInspection(ctx, scope.Tx, inspectionID)
		return err
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := s.Photos.Delete(ctx, path); err != nil {
			s.Logger.WithFields(logrus.Fields{
				"inspection_id": inspectionID,
				"photo_path":    path,
				"error":         err.Error(),
			}).Warn("Failed to delete photo of deleted inspection")
		}
	}

	s.Logger.WithFields(logrus.Fields{
		"inspection_id": inspectionID,
		"photos":        len(paths),
	}).Info("Successfully deleted inspection")
	return nil
}
