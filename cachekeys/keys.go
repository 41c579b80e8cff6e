// Package cachekeys defines the deterministic key naming scheme and the TTL
// classes for the invoicing cache. Every function is pure: the same logical
// query always yields the same key, and no two distinct queries collide.
//
// List keys use the plural entity form ("clients:{user}:...") and singleton
// keys the singular form ("client:{user}:{id}"). The split is deliberate:
// clearing "clients:{user}:*" after a mutation must not take the singleton
// entries with it, so invalidation issues a pattern clear and an explicit
// singleton delete as two separate steps.
//
// Filter parameters are appended in a fixed order (page, limit, search, then
// entity-specific filters). Callers must keep that order for list keys to
// stay deterministic.
package cachekeys

import (
	"fmt"
	"time"
)

// TTL classes. Every cached value is written with exactly one of these.
// A cached entity can be stale at most this long if invalidation fails.
const (
	TTLShort    = 60 * time.Second  // volatile listings
	TTLMedium   = 5 * time.Minute   // dashboard aggregates, default
	TTLLong     = 15 * time.Minute  // settings, slow-changing reads
	TTLVeryLong = time.Hour         // near-static reference data
	TTLSession  = 24 * time.Hour    // session payloads
)

// User keys the account record for one owner.
func User(userID string) string {
	return "user:" + userID
}

// Clients keys one page of an owner's client listing.
func Clients(userID string, page, limit int, search string) string {
	return fmt.Sprintf("clients:%s:p%d:l%d:s%s", userID, page, limit, search)
}

// Client keys a single client record.
func Client(userID, clientID string) string {
	return "client:" + userID + ":" + clientID
}

// Products keys one page of an owner's product listing.
func Products(userID string, page, limit int, search, category string) string {
	return fmt.Sprintf("products:%s:p%d:l%d:s%s:c%s", userID, page, limit, search, category)
}

// Product keys a single product record.
func Product(userID, productID string) string {
	return "product:" + userID + ":" + productID
}

// Invoices keys one page of an owner's invoice listing.
func Invoices(userID string, page, limit int, search, status, clientID string) string {
	return fmt.Sprintf("invoices:%s:p%d:l%d:s%s:st%s:c%s", userID, page, limit, search, status, clientID)
}

// Invoice keys a single invoice record.
func Invoice(userID, invoiceID string) string {
	return "invoice:" + userID + ":" + invoiceID
}

// Dashboard keys the owner's dashboard aggregate.
func Dashboard(userID string) string {
	return "dashboard:" + userID
}

// Settings keys the owner's settings document.
func Settings(userID string) string {
	return "settings:" + userID
}

// Session keys a session payload by token.
func Session(token string) string {
	return "session:" + token
}

// FamilyPattern matches every list key of one entity family for one owner,
// e.g. FamilyPattern("clients", u) covers all cached pages and filter
// combinations. It does not match the singular singleton keys.
func FamilyPattern(entity, userID string) string {
	return entity + ":" + userID + ":*"
}

// UserPattern matches every qualified key belonging to one owner across all
// families. Singleton keys without qualifiers (user, dashboard, settings)
// are not covered and must be deleted explicitly.
func UserPattern(userID string) string {
	return "*:" + userID + ":*"
}
