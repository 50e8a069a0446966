//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package widget

import (
	"fmt"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-nexus-agent/marketdata"
)

const excerptLength = 200

// QuoteRow is a row of the quote table.
type QuoteRow struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	PercentChange float64  `json:"percent_change"`
	PrevClose     float64  `json:"prev_close"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Volume        *int64   `json:"volume"`
	MarketCap     *int64   `json:"market_cap"`
}

// DividendRow is a row of the dividends table.
type DividendRow struct {
	Symbol        string   `json:"symbol"`
	ExDate        *string  `json:"ex_date"`
	PaymentDate   *string  `json:"payment_date"`
	RecordDate    *string  `json:"record_date"`
	Amount        *float64 `json:"amount"`
	AnnouncedDate *string  `json:"announced_date"`
}

// NewsItem is an entry of the newsfeed widget.
type NewsItem struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Author  string `json:"author"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
}

// QuoteRows converts quotes to table rows.
func QuoteRows(quotes []marketdata.Quote) []QuoteRow {
	rows := make([]QuoteRow, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, QuoteRow{
			Symbol:        q.Symbol,
			Price:         q.Price,
			Change:        q.Change,
			PercentChange: q.PercentChange,
			PrevClose:     q.PrevClose,
			Open:          q.Open,
			High:          q.High,
			Low:           q.Low,
			Volume:        q.Volume.Ptr(),
			MarketCap:     q.MarketCap.Ptr(),
		})
	}
	return rows
}

// DividendRows converts dividend events to table rows.
func DividendRows(divs []marketdata.Dividend) []DividendRow {
	rows := make([]DividendRow, 0, len(divs))
	for _, d := range divs {
		rows = append(rows, DividendRow{
			Symbol:        d.Symbol,
			ExDate:        d.ExDate,
			PaymentDate:   d.PaymentDate,
			RecordDate:    d.RecordDate,
			Amount:        d.Amount,
			AnnouncedDate: d.AnnounceDate,
		})
	}
	return rows
}

// NewsItems converts articles to newsfeed entries.
func NewsItems(articles []marketdata.NewsArticle) []NewsItem {
	items := make([]NewsItem, 0, len(articles))
	for _, a := range articles {
		author := deref(a.Source)
		if author == "" {
			author = a.Provider
		}
		items = append(items, NewsItem{
			Title:   a.Headline,
			Date:    EpochMillisToISO(a.Datetime),
			Author:  author,
			Excerpt: Excerpt(deref(a.Summary), excerptLength),
			Body:    ArticleBody(deref(a.Summary), deref(a.QMURL)),
		})
	}
	return items
}

// EpochMillisToISO formats epoch milliseconds as an ISO 8601 UTC timestamp
// without zone suffix. Microseconds are appended only when non zero.
func EpochMillisToISO(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	s := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// Excerpt shortens summary to at most max characters, cutting at the last
// word boundary and appending "...".
func Excerpt(summary string, max int) string {
	r := []rune(summary)
	if len(r) <= max {
		return summary
	}
	cut := string(r[:max])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// ArticleBody is the summary followed by a link to the full article.
func ArticleBody(summary, link string) string {
	if link == "" {
		return summary
	}
	return summary + "\n\n[Read full article](" + link + ")"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
