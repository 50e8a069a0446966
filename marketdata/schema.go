//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package marketdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/tidwall/gjson"
)

// Quote is a CORE/QUOTE record.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"latestPrice"`
	Change        float64  `json:"change"`
	PercentChange float64  `json:"changePercent"`
	PrevClose     float64  `json:"previousClose"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Volume        *Int64   `json:"volume"`
	MarketCap     *Int64   `json:"marketCap"`
}

// NewsArticle is a CORE/NEWS record. Datetime is in epoch milliseconds.
type NewsArticle struct {
	Datetime   int64   `json:"datetime"`
	Headline   string  `json:"headline"`
	Summary    *string `json:"summary"`
	Source     *string `json:"source"`
	Provider   string  `json:"provider"`
	Symbol     string  `json:"symbol"`
	UUID       string  `json:"uuid"`
	URL        string  `json:"url"`
	QMURL      *string `json:"qmUrl"`
	Image      *string `json:"image"`
	ImageURL   *string `json:"imageUrl"`
	HasPaywall bool    `json:"hasPaywall"`
	Lang       *string `json:"lang"`
	Related    *string `json:"related"`
}

// Dividend is a CORE/ADVANCED_DIVIDENDS record.
type Dividend struct {
	Symbol string `json:"symbol"`
	RefID  string `json:"refid"`
	Status string `json:"status"`

	ADRFee                *Int64   `json:"adrFee"`
	Amount                *float64 `json:"amount"`
	AnnounceDate          *string  `json:"announceDate"`
	CountryCode           *string  `json:"countryCode"`
	Coupon                *float64 `json:"coupon"`
	Created               *string  `json:"created"`
	Currency              *string  `json:"currency"`
	DeclaredCurrencyCD    *string  `json:"declaredCurrencyCD"`
	DeclaredDate          *string  `json:"declaredDate"`
	DeclaredGrossAmount   *float64 `json:"declaredGrossAmount"`
	Description           *string  `json:"description"`
	ExDate                *string  `json:"exDate"`
	FIGI                  *string  `json:"figi"`
	FiscalYearEndDate     *string  `json:"fiscalYearEndDate"`
	Flag                  *string  `json:"flag"`
	Frequency             *string  `json:"frequency"`
	FromFactor            *float64 `json:"fromFactor"`
	FXDate                *string  `json:"fxDate"`
	GrossAmount           *float64 `json:"grossAmount"`
	InstallmentPayDate    *string  `json:"installmentPayDate"`
	IsApproximate         *bool    `json:"isApproximate"`
	IsCapitalGains        *bool    `json:"isCapitalGains"`
	IsDAP                 *bool    `json:"isDAP"`
	IsNetInvestmentIncome *bool    `json:"isNetInvestmentIncome"`
	LastUpdated           *string  `json:"lastUpdated"`
	Marker                *string  `json:"marker"`
	NetAmount             *float64 `json:"netAmount"`
	Notes                 *string  `json:"notes"`
	OptionalElectionDate  *string  `json:"optionalElectionDate"`
	ParValue              *float64 `json:"parValue"`
	ParValueCurrency      *string  `json:"parValueCurrency"`
	PaymentDate           *string  `json:"paymentDate"`
	PeriodEndDate         *string  `json:"periodEndDate"`
	RecordDate            *string  `json:"recordDate"`
	RegistrationDate      *string  `json:"registrationDate"`
	SecondExDate          *string  `json:"secondExDate"`
	SecondPaymentDate     *string  `json:"secondPaymentDate"`
	SecurityType          *string  `json:"securityType"`
	TaxRate               *float64 `json:"taxRate"`
	ToDate                *string  `json:"toDate"`
	ToFactor              *float64 `json:"toFactor"`
	UnAdjustedAmount      *float64 `json:"unAdjustedAmount"`
}

// Int64 is an integer field that also accepts integral numbers written in
// float form, such as 1200.0 or 3.5e12. Fractional values are rejected.
type Int64 int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Int64) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = Int64(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return &json.UnmarshalTypeError{Value: "number " + s, Type: reflect.TypeOf(int64(0))}
	}
	*n = Int64(f)
	return nil
}

// Ptr returns n as a plain *int64, nil when n is nil.
func (n *Int64) Ptr() *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}

// Required wire fields per dataset.
var (
	quoteRequired    = []string{"symbol", "latestPrice", "change", "changePercent", "previousClose"}
	newsRequired     = []string{"datetime", "headline", "provider", "symbol", "uuid", "url"}
	dividendRequired = []string{"symbol", "refid", "status"}
)

// SchemaValidationError reports a record that does not match its dataset
// schema. Index is -1 when the payload itself is not a JSON array.
type SchemaValidationError struct {
	Dataset string
	Index   int
	Field   string
	Err     error
}

func (e *SchemaValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: invalid payload: %v", e.Dataset, e.Err)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s record %d: %v", e.Dataset, e.Index, e.Err)
	}
	return fmt.Sprintf("%s record %d field %q: %v", e.Dataset, e.Index, e.Field, e.Err)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

var (
	errFieldRequired = errors.New("field required")
	errNotArray      = errors.New("expected a JSON array")
)

// decodeRecords decodes a JSON array of dataset records. Unknown fields are
// ignored, required fields must be present and non-null, and every field
// must have the declared type.
func decodeRecords[T any](dataset string, body []byte, required []string) ([]T, error) {
	if !gjson.ValidBytes(body) {
		return nil, &SchemaValidationError{Dataset: dataset, Index: -1, Err: errors.New("malformed JSON")}
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, &SchemaValidationError{Dataset: dataset, Index: -1, Err: errNotArray}
	}
	elems := root.Array()
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		if !elem.IsObject() {
			return nil, &SchemaValidationError{Dataset: dataset, Index: i, Err: errors.New("expected a JSON object")}
		}
		for _, field := range required {
			if v := elem.Get(gjson.Escape(field)); !v.Exists() || v.Type == gjson.Null {
				return nil, &SchemaValidationError{Dataset: dataset, Index: i, Field: field, Err: errFieldRequired}
			}
		}
		var rec T
		if err := json.Unmarshal([]byte(elem.Raw), &rec); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, &SchemaValidationError{Dataset: dataset, Index: i, Field: typeErr.Field, Err: err}
			}
			return nil, &SchemaValidationError{Dataset: dataset, Index: i, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}
