package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/seed"
)

const dateLayout = "2006-01-02"

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetETFHistoryTool(), handleGetETFHistory(a.ValuationService, logger, time.Now))
	s.AddTool(createGetPortfolioInsightsTool(), handleGetPortfolioInsights(a.InsightService, logger))
	s.AddTool(createGetMetricHistoryTool(), handleGetMetricHistory(a.MetricService, logger))
	s.AddTool(createListCollectionsTool(), handleListCollections(a.Seed))
}

func createGetETFHistoryTool() mcp.Tool {
	return mcp.NewTool("get_etf_history",
		mcp.WithDescription("Get the synthetic $ALIN index price history built from the inception allocation."),
		mcp.WithString("from",
			mcp.Description("Start date YYYY-MM-DD (default: 90 days ago)"),
		),
		mcp.WithString("to",
			mcp.Description("End date YYYY-MM-DD (default: today)"),
		),
	)
}

func createGetPortfolioInsightsTool() mcp.Tool {
	return mcp.NewTool("get_portfolio_insights",
		mcp.WithDescription("Get alerts, opportunities and the health score for a portfolio."),
		mcp.WithString("portfolio_id",
			mcp.Description("Portfolio ID (default: 'alin', the public fund)"),
		),
	)
}

func createGetMetricHistoryTool() mcp.Tool {
	return mcp.NewTool("get_metric_history",
		mcp.WithDescription("Get the trailing-year percentile of market cap, short interest, beta and average volume for a ticker."),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("US ticker, e.g. 'NVDA'"),
		),
	)
}

func createListCollectionsTool() mcp.Tool {
	return mcp.NewTool("list_collections",
		mcp.WithDescription("List the curated stock collections and their tickers."),
	)
}

func handleGetETFHistory(valuation interfaces.ValuationService, logger *common.Logger, now func() time.Time) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		end := now().UTC()
		start := end.AddDate(0, 0, -90)

		if v := request.GetString("from", ""); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return errorResult("Error: from must be YYYY-MM-DD"), nil
			}
			start = t
		}
		if v := request.GetString("to", ""); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return errorResult("Error: to must be YYYY-MM-DD"), nil
			}
			end = t
		}

		points, err := valuation.CalculateHistoricalETFPrices(ctx, start, end)
		if err != nil {
			logger.Error().Err(err).Msg("ETF history failed")
			return errorResult(fmt.Sprintf("ETF history error: %v", err)), nil
		}

		return textResult(formatETFHistory(points)), nil
	}
}

func handleGetPortfolioInsights(insights interfaces.InsightService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("portfolio_id", models.PublicPortfolioID)

		result, err := insights.PortfolioInsights(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str("portfolio", id).Msg("Portfolio insights failed")
			return errorResult(fmt.Sprintf("Insights error: %v", err)), nil
		}

		return textResult(formatInsights(id, result)), nil
	}
}

func handleGetMetricHistory(metricService interfaces.MetricService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || strings.TrimSpace(ticker) == "" {
			return errorResult("Error: ticker parameter is required"), nil
		}
		ticker = strings.ToUpper(strings.TrimSpace(ticker))

		histories, err := metricService.TickerMetricHistories(ctx, ticker)
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("Metric history failed")
			return errorResult(fmt.Sprintf("Metric history error: %v", err)), nil
		}

		return textResult(formatMetricHistories(ticker, histories)), nil
	}
}

func handleListCollections(data *seed.Data) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sb strings.Builder
		sb.WriteString("# Collections\n\n")
		for _, c := range data.Collections {
			sb.WriteString(fmt.Sprintf("## %s (`%s`)\n%s\n\nTickers: %s\n\n", c.Title, c.Slug, c.Description, strings.Join(c.Tickers, ", ")))
		}
		return textResult(sb.String()), nil
	}
}

func formatETFHistory(points []models.PricePoint) string {
	if len(points) == 0 {
		return "No $ALIN history in range."
	}

	first, last := points[0], points[len(points)-1]
	change := 0.0
	if first.Close != 0 {
		change = (last.Close - first.Close) / first.Close * 100
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# $ALIN %s to %s\n\n", first.Date.Format(dateLayout), last.Date.Format(dateLayout)))
	sb.WriteString(fmt.Sprintf("Start %.2f, end %.2f, change %+.2f%% over %d sessions\n\n", first.Close, last.Close, change, len(points)))
	sb.WriteString("| Date | Open | High | Low | Close |\n|---|---|---|---|---|\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f |\n", p.Date.Format(dateLayout), p.Open, p.High, p.Low, p.Close))
	}
	return sb.String()
}

func formatInsights(id string, result *models.Insights) string {
	var sb strings.Builder
	h := result.Health
	sb.WriteString(fmt.Sprintf("# Insights: %s\n\n", id))
	sb.WriteString(fmt.Sprintf("**Health:** %d (%s)  diversification %.1f, momentum %.1f, risk balance %.1f\n\n",
		h.Score, h.Bucket, h.Diversification, h.Momentum, h.RiskBalance))

	sb.WriteString("## Alerts\n\n")
	if len(result.Alerts) == 0 {
		sb.WriteString("None\n")
	}
	for _, a := range result.Alerts {
		sb.WriteString(fmt.Sprintf("- **%s** [%s] %s (%s)\n", a.Ticker, a.Priority, a.Message, a.Action))
	}

	sb.WriteString("\n## Opportunities\n\n")
	if len(result.Opportunities) == 0 {
		sb.WriteString("None\n")
	}
	for _, o := range result.Opportunities {
		sb.WriteString(fmt.Sprintf("- **%s** [%s] %s: %s\n", o.Type, o.Priority, strings.Join(o.Tickers, ", "), o.Description))
	}
	return sb.String()
}

func formatMetricHistories(ticker string, histories []models.MetricHistory) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s metric history\n\n", ticker))
	sb.WriteString("| Metric | Current | Percentile | Low | High | Points |\n|---|---|---|---|---|---|\n")
	for _, h := range histories {
		percentile := "building"
		if h.Percentile != nil {
			percentile = fmt.Sprintf("%d", *h.Percentile)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %d |\n",
			h.Metric, formatOptional(h.Current), percentile, formatOptional(h.Low), formatOptional(h.High), h.DataPoints))
	}
	return sb.String()
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4g", *v)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
