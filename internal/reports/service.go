package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/money"
)

const topProductsLimit = 5

// DashboardRequest selects the journal window for a dashboard.
type DashboardRequest struct {
	TerminalID string
	From       *time.Time
	To         *time.Time
}

// PaymentBreakdown is the net amount collected through one payment method.
type PaymentBreakdown struct {
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	TransactionCount int64               `json:"transaction_count"`
	Amount           int64               `json:"amount"`
}

// ProductSales aggregates quantity and revenue for one product.
type ProductSales struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

// DailySales is the net total for one calendar day.
type DailySales struct {
	Date             string `json:"date"`
	TransactionCount int64  `json:"transaction_count"`
	NetSales         int64  `json:"net_sales"`
}

// Dashboard summarizes journaled sales in a window.
type Dashboard struct {
	From                time.Time          `json:"from"`
	To                  time.Time          `json:"to"`
	TerminalID          string             `json:"terminal_id,omitempty"`
	TransactionCount    int64              `json:"transaction_count"`
	GrossSubtotal       int64              `json:"gross_subtotal"`
	DiscountTotal       int64              `json:"discount_total"`
	PointsDiscountTotal int64              `json:"points_discount_total"`
	NetSales            int64              `json:"net_sales"`
	CostTotal           int64              `json:"cost_total"`
	GrossMargin         int64              `json:"gross_margin"`
	MarginPercent       decimal.Decimal    `json:"margin_percent"`
	AverageTicket       int64              `json:"average_ticket"`
	Payments            []PaymentBreakdown `json:"payments"`
	TopProducts         []ProductSales     `json:"top_products"`
	Daily               []DailySales       `json:"daily"`
}

type journalReader interface {
	Totals(ctx context.Context, q rangeQuery) (totalsRow, error)
	PaymentBreakdown(ctx context.Context, q rangeQuery) ([]paymentRow, error)
	Sales(ctx context.Context, q rangeQuery) ([]saleRow, error)
}

// Service builds sales dashboards from the local journal.
type Service interface {
	Dashboard(ctx context.Context, req DashboardRequest) (*Dashboard, error)
}

type service struct {
	repo  journalReader
	clock func() time.Time
}

// NewService builds the reports service.
func NewService(repo journalReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("journal reader required")
	}
	return &service{repo: repo, clock: time.Now}, nil
}

func (s *service) Dashboard(ctx context.Context, req DashboardRequest) (*Dashboard, error) {
	now := s.clock().UTC()
	to := now
	if req.To != nil {
		to = req.To.UTC()
	}
	from := startOfDay(now)
	if req.From != nil {
		from = req.From.UTC()
	}
	if from.After(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to").
			WithDetails(map[string]any{"from": from, "to": to})
	}

	q := rangeQuery{terminalID: strings.TrimSpace(req.TerminalID), from: from, to: to}
	totals, err := s.repo.Totals(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum journal totals")
	}
	payments, err := s.repo.PaymentBreakdown(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "group payment methods")
	}
	sales, err := s.repo.Sales(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load journal items")
	}

	margin := totals.NetSales - totals.CostTotal
	out := &Dashboard{
		From:                from,
		To:                  to,
		TerminalID:          q.terminalID,
		TransactionCount:    totals.TransactionCount,
		GrossSubtotal:       totals.GrossSubtotal,
		DiscountTotal:       totals.DiscountTotal,
		PointsDiscountTotal: totals.PointsDiscountTotal,
		NetSales:            totals.NetSales,
		CostTotal:           totals.CostTotal,
		GrossMargin:         margin,
		MarginPercent:       money.Ratio(margin, totals.NetSales),
		AverageTicket:       money.Average(totals.NetSales, totals.TransactionCount),
		Payments:            make([]PaymentBreakdown, 0, len(payments)),
		TopProducts:         topProducts(sales, topProductsLimit),
		Daily:               dailySeries(sales),
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, PaymentBreakdown{
			PaymentMethod:    p.PaymentMethod,
			TransactionCount: p.Count,
			Amount:           p.Amount,
		})
	}
	return out, nil
}

// topProducts ranks by quantity, then revenue, then product id.
func topProducts(sales []saleRow, limit int) []ProductSales {
	byID := map[int64]*ProductSales{}
	for _, sale := range sales {
		for _, item := range sale.Items {
			entry, ok := byID[item.ProductID]
			if !ok {
				entry = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				byID[item.ProductID] = entry
			}
			entry.Quantity += item.Quantity
			entry.Revenue += item.Subtotal
		}
	}

	ranked := make([]ProductSales, 0, len(byID))
	for _, entry := range byID {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func dailySeries(sales []saleRow) []DailySales {
	series := []DailySales{}
	for _, sale := range sales {
		day := sale.CreatedAt.UTC().Format(time.DateOnly)
		if n := len(series); n > 0 && series[n-1].Date == day {
			series[n-1].TransactionCount++
			series[n-1].NetSales += sale.FinalTotal
			continue
		}
		series = append(series, DailySales{Date: day, TransactionCount: 1, NetSales: sale.FinalTotal})
	}
	return series
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
