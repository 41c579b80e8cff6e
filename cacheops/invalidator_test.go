package cacheops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/quillbill/backend/cache"
	"github.com/quillbill/backend/cachekeys"
)

func newTestService(t *testing.T) *cache.Service {
	t.Helper()
	svc := cache.New(context.Background(), zap.NewNop())
	t.Cleanup(svc.Close)
	return svc
}

func seed(t *testing.T, svc *cache.Service, keys ...string) {
	t.Helper()
	ctx := context.Background()
	for _, key := range keys {
		svc.Set(ctx, key, "x", time.Minute)
	}
}

func TestInvalidateClients(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc,
		cachekeys.Clients("u1", 1, 10, ""),
		cachekeys.Clients("u1", 2, 10, "acme"),
		cachekeys.Client("u1", "c1"),
		cachekeys.Client("u1", "c2"),
		cachekeys.Products("u1", 1, 10, "", ""),
		cachekeys.Dashboard("u1"),
		cachekeys.Clients("u2", 1, 10, ""),
	)

	inv := NewInvalidator(svc, zap.NewNop())
	inv.Clients(ctx, "u1", "c1")

	assert.False(t, svc.Exists(ctx, cachekeys.Clients("u1", 1, 10, "")))
	assert.False(t, svc.Exists(ctx, cachekeys.Clients("u1", 2, 10, "acme")))
	assert.False(t, svc.Exists(ctx, cachekeys.Client("u1", "c1")))
	assert.False(t, svc.Exists(ctx, cachekeys.Dashboard("u1")))
	// Other singletons, families, and owners are untouched.
	assert.True(t, svc.Exists(ctx, cachekeys.Client("u1", "c2")))
	assert.True(t, svc.Exists(ctx, cachekeys.Products("u1", 1, 10, "", "")))
	assert.True(t, svc.Exists(ctx, cachekeys.Clients("u2", 1, 10, "")))
}

func TestInvalidateClientsWithoutID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc,
		cachekeys.Clients("u1", 1, 10, ""),
		cachekeys.Client("u1", "c1"),
	)

	NewInvalidator(svc, zap.NewNop()).Clients(ctx, "u1", "")

	assert.False(t, svc.Exists(ctx, cachekeys.Clients("u1", 1, 10, "")))
	assert.True(t, svc.Exists(ctx, cachekeys.Client("u1", "c1")))
}

func TestInvalidateInvoicesTakesDashboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc,
		cachekeys.Invoices("u1", 1, 10, "", "", ""),
		cachekeys.Invoice("u1", "i1"),
		cachekeys.Dashboard("u1"),
		cachekeys.Settings("u1"),
	)

	NewInvalidator(svc, zap.NewNop()).Invoices(ctx, "u1", "i1")

	assert.False(t, svc.Exists(ctx, cachekeys.Invoices("u1", 1, 10, "", "", "")))
	assert.False(t, svc.Exists(ctx, cachekeys.Invoice("u1", "i1")))
	// Invoices feed the dashboard aggregates.
	assert.False(t, svc.Exists(ctx, cachekeys.Dashboard("u1")))
	assert.True(t, svc.Exists(ctx, cachekeys.Settings("u1")))
}

func TestInvalidateSettingsAndDashboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, cachekeys.Settings("u1"), cachekeys.Dashboard("u1"))

	inv := NewInvalidator(svc, zap.NewNop())
	inv.Settings(ctx, "u1")
	assert.False(t, svc.Exists(ctx, cachekeys.Settings("u1")))
	assert.True(t, svc.Exists(ctx, cachekeys.Dashboard("u1")))

	inv.Dashboard(ctx, "u1")
	assert.False(t, svc.Exists(ctx, cachekeys.Dashboard("u1")))
}

func TestInvalidateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc,
		cachekeys.User("u1"),
		cachekeys.Clients("u1", 1, 10, ""),
		cachekeys.Client("u1", "c1"),
		cachekeys.Invoice("u1", "i1"),
		cachekeys.Dashboard("u1"),
		cachekeys.Settings("u1"),
		cachekeys.Dashboard("u2"),
	)

	NewInvalidator(svc, zap.NewNop()).User(ctx, "u1")

	assert.False(t, svc.Exists(ctx, cachekeys.User("u1")))
	assert.False(t, svc.Exists(ctx, cachekeys.Clients("u1", 1, 10, "")))
	assert.False(t, svc.Exists(ctx, cachekeys.Client("u1", "c1")))
	assert.False(t, svc.Exists(ctx, cachekeys.Invoice("u1", "i1")))
	assert.False(t, svc.Exists(ctx, cachekeys.Dashboard("u1")))
	assert.False(t, svc.Exists(ctx, cachekeys.Settings("u1")))
	assert.True(t, svc.Exists(ctx, cachekeys.Dashboard("u2")))
}

func TestInvalidateSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, cachekeys.Session("tok1"))

	NewInvalidator(svc, zap.NewNop()).Session(ctx, "tok1")
	assert.False(t, svc.Exists(ctx, cachekeys.Session("tok1")))
}

func TestOnInvalidateHook(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc,
		cachekeys.Clients("u1", 1, 10, ""),
		cachekeys.Clients("u1", 2, 10, ""),
	)

	inv := NewInvalidator(svc, zap.NewNop())
	var gotPattern string
	var gotDeleted int
	inv.OnInvalidate(func(pattern string, deleted int) {
		gotPattern = pattern
		gotDeleted = deleted
	})

	inv.Clients(ctx, "u1", "")
	assert.Equal(t, "clients:u1:*", gotPattern)
	assert.Equal(t, 2, gotDeleted)
}

// A create-then-list flow: the stale pre-creation listing must not survive
// the invalidation that follows the mutation.
func TestCreateInvalidateRefetch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	listKey := cachekeys.Clients("u1", 1, 10, "")

	db := []string{"Initech"}
	var fetches int
	fetch := func(context.Context) ([]string, error) {
		fetches++
		out := make([]string, len(db))
		copy(out, db)
		return out, nil
	}

	before, err := cache.Through(ctx, svc, listKey, cachekeys.TTLMedium, fetch)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Initech"}, before)

	// Create "Acme" and invalidate, as a mutation handler would.
	db = append(db, "Acme")
	NewInvalidator(svc, zap.NewNop()).Clients(ctx, "u1", "")

	after, err := cache.Through(ctx, svc, listKey, cachekeys.TTLMedium, fetch)
	assert.NoError(t, err)
	assert.Equal(t, 2, fetches, "invalidation must force a refetch")
	assert.Contains(t, after, "Acme")
}
