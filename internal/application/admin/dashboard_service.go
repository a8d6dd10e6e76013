package admin

import (
	"context"
	"errors"
	"time"

	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	orderapp "github.com/shopfront/backend/internal/application/order"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dashboardListSize = 5
	maxReportDays     = 366
	dayLayout         = "2006-01-02"
)

// Dashboard is the admin landing page summary
type Dashboard struct {
	TotalUsers     int64                        `json:"total_users"`
	TotalProducts  int64                        `json:"total_products"`
	TotalOrders    int64                        `json:"total_orders"`
	OrdersByStatus map[string]int64             `json:"orders_by_status"`
	Revenue        decimal.Decimal              `json:"revenue"`
	LowStockCount  int64                        `json:"low_stock_count"`
	RecentOrders   []orderapp.OrderResponse     `json:"recent_orders"`
	TopProducts    []catalogapp.ProductResponse `json:"top_products"`
}

// SalesReportQuery selects the report range. Both days are inclusive.
type SalesReportQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// SalesReport is a daily series of order count and revenue
type SalesReport struct {
	From         string             `json:"from"`
	To           string             `json:"to"`
	Days         []order.DailySales `json:"days"`
	TotalOrders  int64              `json:"total_orders"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
}

// DashboardService computes admin statistics
type DashboardService struct {
	users    identity.UserRepository
	products catalog.ProductRepository
	orders   order.Repository
	logger   *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(users identity.UserRepository, products catalog.ProductRepository, orders order.Repository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		users:    users,
		products: products,
		orders:   orders,
		logger:   logger,
	}
}

// Dashboard gathers the headline numbers
func (s *DashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admin", "dashboard")
	defer span.End()

	var (
		d   Dashboard
		err error
	)
	if d.TotalUsers, err = s.users.Count(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to count users", err)
	}
	if d.TotalProducts, err = s.products.Count(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to count products", err)
	}
	if d.LowStockCount, err = s.products.CountLowStock(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to count low stock products", err)
	}
	if d.TotalOrders, err = s.orders.Count(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to count orders", err)
	}

	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to count orders by status", err)
	}
	d.OrdersByStatus = map[string]int64{}
	for _, status := range []order.Status{
		order.StatusPending, order.StatusProcessing, order.StatusShipped, order.StatusDelivered, order.StatusCancelled,
	} {
		d.OrdersByStatus[status.String()] = byStatus[status]
	}

	if d.Revenue, err = s.orders.Revenue(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to sum revenue", err)
	}
	d.Revenue = d.Revenue.Round(2)

	recent, err := s.orders.FindRecent(ctx, dashboardListSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to load recent orders", err)
	}
	d.RecentOrders = orderapp.ToOrderResponses(recent)

	top, err := s.products.FindTopSellers(ctx, dashboardListSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to load top sellers", err)
	}
	d.TopProducts = catalogapp.ToProductResponses(top)

	telemetry.SetOK(span)
	return &d, nil
}

// SalesReport returns one row per day in [from, to], including days without orders
func (s *DashboardService) SalesReport(ctx context.Context, query SalesReportQuery) (*SalesReport, error) {
	from, err := time.Parse(dayLayout, query.From)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "from must be a date formatted YYYY-MM-DD")
	}
	to, err := time.Parse(dayLayout, query.To)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "to must be a date formatted YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "from must not be after to")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxReportDays {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Report range cannot exceed 366 days")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "admin", "sales_report")
	defer span.End()
	telemetry.SetAttributes(span, "report.from", query.From, "report.to", query.To)

	rows, err := s.orders.DailySales(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to build sales report", err)
	}
	byDay := make(map[string]order.DailySales, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}

	report := &SalesReport{
		From:         query.From,
		To:           query.To,
		Days:         make([]order.DailySales, 0, days),
		TotalRevenue: decimal.Zero,
	}
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i).Format(dayLayout)
		row, ok := byDay[day]
		if !ok {
			row = order.DailySales{Day: day, Revenue: decimal.Zero}
		}
		report.Days = append(report.Days, row)
		report.TotalOrders += row.OrderCount
		report.TotalRevenue = report.TotalRevenue.Add(row.Revenue)
	}

	telemetry.SetOK(span)
	return report, nil
}

func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
