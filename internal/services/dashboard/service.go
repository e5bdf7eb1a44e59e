package dashboard

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type OverallTotals struct {
	TotalClients         int64   `json:"total_clients"`
	TotalFiled           int64   `json:"total_filed"`
	TotalPending         int64   `json:"total_pending"`
	TotalEVerified       int64   `json:"total_everified"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type RangeSummary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Total           int64     `json:"total"`
	StatusCompleted int64     `json:"status_completed"`
	StatusPending   int64     `json:"status_pending"`
}

type OAProductivity struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	FiledToday     int64     `json:"filed_today"`
	EVerifiedToday int64     `json:"e_verified_today"`
}

type CEODashboard struct {
	Overall        OverallTotals    `json:"overall"`
	RangeSummary   []RangeSummary   `json:"range_summary"`
	OAProductivity []OAProductivity `json:"oa_productivity"`
}

// CEO aggregates the whole office: overall filing totals, per-range
// progress and per-OA productivity for today.
func (s *Service) CEO(ctx context.Context, officeID uuid.UUID) (*CEODashboard, error) {
	var overall OverallTotals
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_clients,
			COUNT(*) FILTER (WHERE itr_filed = true) AS total_filed,
			COUNT(*) FILTER (WHERE itr_filed = false) AS total_pending,
			COUNT(*) FILTER (WHERE everified = true) AS total_everified
		FROM clients
		WHERE office_id = ?`, officeID).Scan(&overall).Error
	if err != nil {
		return nil, err
	}
	if overall.TotalClients > 0 {
		overall.CompletionPercentage = float64(overall.TotalFiled) / float64(overall.TotalClients) * 100
	}

	var ranges []RangeSummary
	err = s.db.WithContext(ctx).Raw(`
		SELECT
			r.id,
			r.name,
			COUNT(c.id) AS total,
			COUNT(c.id) FILTER (WHERE c.itr_filed = true) AS status_completed,
			COUNT(c.id) FILTER (WHERE c.itr_filed = false) AS status_pending
		FROM ranges r
		LEFT JOIN clients c ON r.id = c.range_id
		WHERE r.office_id = ?
		GROUP BY r.id, r.name
		ORDER BY r.name`, officeID).Scan(&ranges).Error
	if err != nil {
		return nil, err
	}

	var oas []OAProductivity
	err = s.db.WithContext(ctx).Raw(`
		SELECT
			u.id,
			u.full_name,
			COUNT(c.id) FILTER (WHERE c.itr_filed_date::date = CURRENT_DATE) AS filed_today,
			COUNT(c.id) FILTER (WHERE c.everified_date::date = CURRENT_DATE) AS e_verified_today
		FROM users u
		LEFT JOIN clients c ON u.id = c.assigned_to
		WHERE u.office_id = ? AND u.role = 'OA'
		GROUP BY u.id, u.full_name
		ORDER BY filed_today DESC`, officeID).Scan(&oas).Error
	if err != nil {
		return nil, err
	}

	return &CEODashboard{
		Overall:        overall,
		RangeSummary:   ranges,
		OAProductivity: oas,
	}, nil
}

type RangeTotals struct {
	TotalClients int64 `json:"total_clients"`
	Filed        int64 `json:"filed"`
	Pending      int64 `json:"pending"`
}

type DistrictPending struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PendingCount int64     `json:"pending_count"`
}

type AODashboard struct {
	RangeTotals     RangeTotals       `json:"range_totals"`
	DistrictPending []DistrictPending `json:"district_pending"`
}

// AO summarizes one range: filing totals plus the pending backlog by district.
func (s *Service) AO(ctx context.Context, officeID, rangeID uuid.UUID) (*AODashboard, error) {
	var totals RangeTotals
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_clients,
			COUNT(*) FILTER (WHERE itr_filed = true) AS filed,
			COUNT(*) FILTER (WHERE itr_filed = false) AS pending
		FROM clients
		WHERE office_id = ? AND range_id = ?`, officeID, rangeID).Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var districts []DistrictPending
	err = s.db.WithContext(ctx).Raw(`
		SELECT
			d.id,
			d.name,
			COUNT(c.id) FILTER (WHERE c.itr_filed = false) AS pending_count
		FROM districts d
		LEFT JOIN clients c ON d.id = c.district_id
		WHERE d.office_id = ? AND d.range_id = ?
		GROUP BY d.id, d.name
		ORDER BY pending_count DESC`, officeID, rangeID).Scan(&districts).Error
	if err != nil {
		return nil, err
	}

	return &AODashboard{
		RangeTotals:     totals,
		DistrictPending: districts,
	}, nil
}
