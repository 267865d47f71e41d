package http

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"portfolio/internal/messages"
	"portfolio/internal/pkg/async"
	"portfolio/internal/visitors"
)

const unknownCountry = "Unknown"

var countryQuery = gountries.New()

// DashboardResponse is the admin overview payload.
type DashboardResponse struct {
	TotalVisitors  int64                  `json:"totalVisitors"`
	TotalMessages  int64                  `json:"totalMessages"`
	UnreadMessages int64                  `json:"unreadMessages"`
	ByOS           []visitors.CountResult `json:"byOS"`
	ByDeviceClass  []visitors.CountResult `json:"byDeviceClass"`
	ByCountry      []visitors.CountResult `json:"byCountry"`
}

func fetchDashboard(ctx context.Context, db *gorm.DB, logger *slog.Logger) (*DashboardResponse, error) {
	tasks := []async.Task{
		{
			Name: "visitors",
			Execute: func(context.Context) (interface{}, error) {
				return visitors.CountVisitors(db)
			},
		},
		{
			Name: "messages",
			Execute: func(context.Context) (interface{}, error) {
				return messages.CountMessages(db)
			},
		},
		{
			Name: "unread",
			Execute: func(context.Context) (interface{}, error) {
				return messages.CountUnread(db)
			},
		},
		{
			Name: "summary",
			Execute: func(context.Context) (interface{}, error) {
				return visitors.Summarize(db)
			},
		},
	}

	results := async.NewPool(4).Execute(ctx, tasks)
	for _, task := range tasks {
		result, ok := results[task.Name]
		if !ok {
			return nil, ctx.Err()
		}
		if result.Err != nil {
			logger.Error("Dashboard task failed", slog.String("task", task.Name), slog.Any("error", result.Err))
			return nil, result.Err
		}
	}

	resp := &DashboardResponse{
		TotalVisitors:  results["visitors"].Data.(int64),
		TotalMessages:  results["messages"].Data.(int64),
		UnreadMessages: results["unread"].Data.(int64),
	}
	summary := results["summary"].Data.(*visitors.Summary)
	resp.ByOS = emptyIfNil(summary.ByOS)
	resp.ByDeviceClass = emptyIfNil(summary.ByDeviceClass)
	resp.ByCountry = convertCountryStats(summary.ByCountry)
	return resp, nil
}

// DashboardAction returns visitor and message totals for the admin overview.
func DashboardAction(ctx *cartridge.Context) error {
	reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := fetchDashboard(reqCtx, ctx.DB(), ctx.Logger)
	if err != nil {
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to load dashboard", "DASHBOARD_ERROR")
	}

	return ctx.JSON(fiber.Map{
		"success":   true,
		"dashboard": resp,
	})
}

// convertCountryStats renders ISO codes as common country names and merges
// buckets that map to the same name.
func convertCountryStats(items []visitors.CountResult) []visitors.CountResult {
	caser := cases.Upper(language.AmericanEnglish)

	result := make([]visitors.CountResult, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		switch {
		case name == "":
			name = unknownCountry
		default:
			if country, err := countryQuery.FindCountryByAlpha(name); err == nil {
				name = country.Name.Common
			} else {
				name = caser.String(name)
			}
		}

		if i, ok := index[name]; ok {
			result[i].Count += item.Count
			continue
		}
		index[name] = len(result)
		result = append(result, visitors.CountResult{Name: name, Count: item.Count})
	}
	return result
}

func emptyIfNil(items []visitors.CountResult) []visitors.CountResult {
	if items == nil {
		return []visitors.CountResult{}
	}
	return items
}
