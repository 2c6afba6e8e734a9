package models

import "time"

// Collection is a curated, read-only group of tickers
type Collection struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Tickers     []string `json:"tickers" yaml:"tickers"`
}

// Thesis is the investment narrative behind the fund
type Thesis struct {
	Title    string          `json:"title" yaml:"title"`
	Summary  string          `json:"summary" yaml:"summary"`
	Sections []ThesisSection `json:"sections" yaml:"sections"`
}

// ThesisSection is one heading of the thesis
type ThesisSection struct {
	Heading string `json:"heading" yaml:"heading"`
	Body    string `json:"body" yaml:"body"`
}

// Commentary is generated narrative for a portfolio
type Commentary struct {
	PortfolioID string    `json:"portfolio_id"`
	Provider    string    `json:"provider"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached"`
}
