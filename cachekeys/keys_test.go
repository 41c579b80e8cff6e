package cachekeys

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillbill/backend/cache"
)

func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "user:u1", User("u1"))
	assert.Equal(t, "clients:u1:p1:l10:s", Clients("u1", 1, 10, ""))
	assert.Equal(t, "clients:u1:p2:l25:sacme", Clients("u1", 2, 25, "acme"))
	assert.Equal(t, "client:u1:c9", Client("u1", "c9"))
	assert.Equal(t, "products:u1:p1:l10:s:c", Products("u1", 1, 10, "", ""))
	assert.Equal(t, "products:u1:p1:l10:swidget:chardware", Products("u1", 1, 10, "widget", "hardware"))
	assert.Equal(t, "product:u1:p9", Product("u1", "p9"))
	assert.Equal(t, "invoices:u1:p1:l10:s:st:c", Invoices("u1", 1, 10, "", "", ""))
	assert.Equal(t, "invoices:u1:p3:l50:sacme:stpaid:cc9", Invoices("u1", 3, 50, "acme", "paid", "c9"))
	assert.Equal(t, "invoice:u1:i9", Invoice("u1", "i9"))
	assert.Equal(t, "dashboard:u1", Dashboard("u1"))
	assert.Equal(t, "settings:u1", Settings("u1"))
	assert.Equal(t, "session:tok123", Session("tok123"))
}

func TestKeyDeterminism(t *testing.T) {
	assert.Equal(t,
		Invoices("u1", 2, 10, "acme", "paid", "c1"),
		Invoices("u1", 2, 10, "acme", "paid", "c1"))
	// Distinct logical queries never collide.
	assert.NotEqual(t, Clients("u1", 1, 10, ""), Clients("u1", 1, 10, "a"))
	assert.NotEqual(t, Clients("u1", 1, 10, ""), Clients("u2", 1, 10, ""))
	assert.NotEqual(t, Clients("u1", 1, 10, ""), Products("u1", 1, 10, "", ""))
}

func TestFamilyPatternScoping(t *testing.T) {
	pattern := FamilyPattern("clients", "u1")
	assert.Equal(t, "clients:u1:*", pattern)

	assert.True(t, cache.MatchPattern(pattern, Clients("u1", 1, 10, "")))
	assert.True(t, cache.MatchPattern(pattern, Clients("u1", 7, 50, "acme")))
	// The singular singleton family stays out of the plural pattern.
	assert.False(t, cache.MatchPattern(pattern, Client("u1", "123")))
	assert.False(t, cache.MatchPattern(pattern, Clients("u2", 1, 10, "")))
}

func TestUserPatternScoping(t *testing.T) {
	pattern := UserPattern("u1")
	assert.True(t, cache.MatchPattern(pattern, Clients("u1", 1, 10, "")))
	assert.True(t, cache.MatchPattern(pattern, Client("u1", "123")))
	assert.True(t, cache.MatchPattern(pattern, Invoice("u1", "i9")))
	// Unqualified singletons need explicit deletes.
	assert.False(t, cache.MatchPattern(pattern, Dashboard("u1")))
	assert.False(t, cache.MatchPattern(pattern, Settings("u1")))
	assert.False(t, cache.MatchPattern(pattern, User("u1")))
	assert.False(t, cache.MatchPattern(pattern, Dashboard("u2")))
}
