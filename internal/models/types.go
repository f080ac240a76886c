package models

import (
	"encoding/json"
	"fmt"
)

// InventoryPair selects one inventory namespace: an app ID and a context ID.
type InventoryPair struct {
	AppID     string `json:"appId"`
	ContextID string `json:"contextId"`
}

// String renders the pair in the "app/context" form used on the command line.
func (p InventoryPair) String() string {
	return p.AppID + "/" + p.ContextID
}

// GroupStatus tracks a transfer group through the dispatch pipeline.
type GroupStatus string

const (
	GroupCollecting GroupStatus = "collecting"
	GroupSending    GroupStatus = "sending"
	GroupConfirming GroupStatus = "confirming"
	GroupDone       GroupStatus = "done"
	GroupEmpty      GroupStatus = "empty"
	GroupFailed     GroupStatus = "failed"
)

// Item is one tradable asset as returned by inventory retrieval.
type Item struct {
	AppID          string          `json:"appid"`
	ContextID      string          `json:"contextid"`
	AssetID        string          `json:"assetid"`
	ClassID        string          `json:"classid"`
	InstanceID     string          `json:"instanceid"`
	Amount         string          `json:"amount"`
	MarketHashName string          `json:"market_hash_name,omitempty"`
	MarketName     string          `json:"market_name,omitempty"`
	Name           string          `json:"name,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// Pair returns the inventory namespace the item was fetched from.
func (it Item) Pair() InventoryPair {
	return InventoryPair{AppID: it.AppID, ContextID: it.ContextID}
}

// MarketLookupName is the name used to query the market, empty when the item carries none.
func (it Item) MarketLookupName() string {
	for _, n := range []string{it.MarketHashName, it.MarketName, it.Name} {
		if n != "" {
			return n
		}
	}
	return ""
}

// DisplayName is the market lookup name, falling back to an asset-based placeholder.
func (it Item) DisplayName() string {
	if n := it.MarketLookupName(); n != "" {
		return n
	}
	id := it.AssetID
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("Item %s", id)
}

// Price is a market quote. Valid is false when the oracle could not resolve a number.
type Price struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// OfferResult is returned by the platform after an offer is submitted.
type OfferResult struct {
	OfferID           string `json:"offerId"`
	NeedsConfirmation bool   `json:"needsConfirmation"`
}

// GroupSnapshot is a point-in-time view of a transfer group, recorded in the journal.
type GroupSnapshot struct {
	Name      string      `json:"name"`
	Pairs     []string    `json:"pairs"`
	ItemCount int         `json:"itemCount"`
	OfferID   string      `json:"offerId,omitempty"`
	Status    GroupStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
}

// Run is one dispatch invocation as stored in the journal.
type Run struct {
	ID         string          `json:"id"`
	Account    string          `json:"account"`
	Pairs      string          `json:"pairs"`
	Status     string          `json:"status"`
	ExitCode   *int            `json:"exitCode,omitempty"`
	ItemCount  int             `json:"itemCount"`
	Error      string          `json:"error,omitempty"`
	StartedAt  string          `json:"startedAt"`
	FinishedAt string          `json:"finishedAt,omitempty"`
	Groups     []GroupSnapshot `json:"groups,omitempty"`
}

// APIResponse is the standard envelope for report API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *APIMeta    `json:"meta,omitempty"`
}

// APIMeta carries response metadata.
type APIMeta struct {
	ExecutionTime int64 `json:"executionTime"`
}

// APIError is the error envelope.
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail describes a single error.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
