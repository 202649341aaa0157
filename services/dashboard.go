// services/dashboard.go
package services

import (
	"fmt"
	"sort"
	"time"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
	"glasspro-backend/utils"
	"glasspro-backend/workorder"
)

const recentJobLimit = 5

type DashboardOverview struct {
	TotalCustomers     int         `json:"totalCustomers"`
	ActiveJobs         int         `json:"activeJobs"`
	CompletedJobs      int         `json:"completedJobs"`
	ArchivedJobs       int         `json:"archivedJobs"`
	MonthlyRevenue     float64     `json:"monthlyRevenue"`
	OutstandingBalance float64     `json:"outstandingBalance"`
	RecentJobs         []RecentJob `json:"recentJobs"`
}

type RecentJob struct {
	ID           string           `json:"id"`
	CustomerName string           `json:"customerName"`
	Service      string           `json:"service"`
	Status       models.JobStatus `json:"status"`
	Total        float64          `json:"total"`
	VisitDate    string           `json:"visitDate"` // e.g. "Today", "Yesterday"
}

// BuildDashboard summarizes the current records. Revenue counts the totals
// of non-archived jobs dated this month; outstanding sums positive balances
// of non-archived jobs.
func BuildDashboard(customers []models.Customer, jobs []models.Job, now time.Time) DashboardOverview {
	overview := DashboardOverview{
		TotalCustomers: len(customers),
		RecentJobs:     []RecentJob{},
	}
	firstOfMonth := utils.BeginningOfMonth(now)

	for _, job := range jobs {
		switch job.Status {
		case models.JobActive:
			overview.ActiveJobs++
		case models.JobCompleted:
			overview.CompletedJobs++
		case models.JobArchived:
			overview.ArchivedJobs++
			continue
		}
		if !job.Date.Before(firstOfMonth) && job.Date.Before(firstOfMonth.AddDate(0, 1, 0)) {
			overview.MonthlyRevenue += job.TotalAmount
		}
		if due := pricing.BalanceDue(job.TotalAmount, job.PaidAmount); due > 0 {
			overview.OutstandingBalance += due
		}
	}

	recent := append([]models.Job(nil), jobs...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date)
	})
	if len(recent) > recentJobLimit {
		recent = recent[:recentJobLimit]
	}
	for _, job := range recent {
		overview.RecentJobs = append(overview.RecentJobs, RecentJob{
			ID:           job.ID,
			CustomerName: job.CustomerName,
			Service:      workorder.JobLine(job),
			Status:       job.Status,
			Total:        job.TotalAmount,
			VisitDate:    visitLabel(job.Date, now),
		})
	}
	return overview
}

func visitLabel(date, now time.Time) string {
	if date.IsZero() {
		return ""
	}
	switch days := utils.DaysBetween(date, now); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 0:
		return pricing.FormatDate(date)
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
