package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/app/store"
	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminAddr = "0x554c5aF96E9e3c05AEC01ce18221d0DD25975aB4"

// fakeAPI answers requests from a route table keyed by "METHOD path".
type fakeAPI struct {
	mu       sync.Mutex
	routes   map[string]func(port.Request) (*port.Response, error)
	requests []port.Request
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{routes: map[string]func(port.Request) (*port.Response, error){}}
}

func (f *fakeAPI) on(method, path string, fn func(port.Request) (*port.Response, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = fn
}

func (f *fakeAPI) json(method, path, body string) {
	f.on(method, path, func(port.Request) (*port.Response, error) {
		return &port.Response{StatusCode: 200, JSON: true, Body: []byte(body)}, nil
	})
}

func (f *fakeAPI) Do(_ context.Context, req port.Request) (*port.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn, ok := f.routes[req.Method+" "+req.Path]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	return fn(req)
}

func (f *fakeAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newServices(t *testing.T, api *fakeAPI, opts Options) (*Services, *testClock, *store.AuthStore) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache := query.NewClient(query.Options{
		StaleTime:     30 * time.Second,
		QueryRetry:    query.RetryPolicy{Retries: 2, BaseDelay: time.Millisecond},
		MutationRetry: query.RetryPolicy{Retries: 1, BaseDelay: time.Millisecond},
		Now:           clock.Now,
	})
	t.Cleanup(cache.Close)
	auth := store.NewAuthStore("", nil)
	return New(api, cache, mapper.New(), auth, nil, opts), clock, auth
}

func TestCreateExpenseRefetchesList(t *testing.T) {
	api := newFakeAPI()
	var mu sync.Mutex
	list := `[{"id":"e1","item":"Hosting","price":"100","quantity":1,"category":"Infra","date":"2024-04-01"}]`
	api.on("GET", "expenses", func(port.Request) (*port.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		return &port.Response{StatusCode: 200, JSON: true, Body: []byte(list)}, nil
	})
	api.on("POST", "expenses", func(req port.Request) (*port.Response, error) {
		mu.Lock()
		list = `{"data":[{"id":"e1","item":"Hosting","price":"100"},{"id":"e2","item":"Laptop","price":"1500"}]}`
		mu.Unlock()
		return &port.Response{StatusCode: 201, JSON: true, Body: []byte(`{"id":"e2","item":"Laptop","price":"1500","quantity":1}`)}, nil
	})
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	st := svc.Expenses.List(ctx, ExpenseQuery{})
	require.True(t, st.IsSuccess())
	require.Len(t, st.Data, 1)

	created, err := svc.Expenses.Create.MutateAsync(ctx, dto.ExpensePayload{Item: "Laptop", Quantity: 1, Price: "1500"})
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)
	assert.False(t, svc.Expenses.Create.IsPending())

	// The detail is seeded straight from the write.
	detail := query.Peek[entity.Expense](svc.Cache(), ExpenseKey("e2"))
	assert.Equal(t, 1500.0, detail.Data.Price)

	svc.Cache().Wait()
	st = svc.Expenses.List(ctx, ExpenseQuery{})
	require.Len(t, st.Data, 2)
	assert.Equal(t, "Laptop", st.Data[1].Item)
	assert.Equal(t, 2, api.count("GET", "expenses"))
}

func TestListQueryParamsAndCaching(t *testing.T) {
	api := newFakeAPI()
	var got map[string]any
	api.on("GET", "grants", func(req port.Request) (*port.Response, error) {
		got = req.Query
		return &port.Response{StatusCode: 200, JSON: true, Body: []byte(`{"data":[{"id":"g1","name":"Grant"}]}`)}, nil
	})
	svc, clock, _ := newServices(t, api, Options{})
	ctx := context.Background()

	q := GrantQuery{Status: GrantsActive, Page: NewPage(5, 0)}
	st := svc.Grants.List(ctx, q)
	require.True(t, st.IsSuccess())
	assert.Equal(t, "g1", st.Data[0].ID)
	assert.Equal(t, "active", got["status"])
	assert.Equal(t, 5, *got["limit"].(*int))
	assert.Nil(t, got["offset"])

	svc.Grants.List(ctx, q)
	assert.Equal(t, 1, api.count("GET", "grants"))

	clock.Advance(31 * time.Second)
	svc.Grants.List(ctx, q)
	assert.Equal(t, 2, api.count("GET", "grants"))
}

func TestTreasuryUsesLongerStaleTime(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "treasury", `{"organizationName":"Org","totalValueUsd":"10"}`)
	svc, clock, _ := newServices(t, api, Options{TreasuryStaleTime: time.Minute})
	ctx := context.Background()

	st := svc.Treasury.Overview(ctx)
	require.True(t, st.IsSuccess())
	assert.Equal(t, "Org", st.Data.OrganizationName)

	clock.Advance(45 * time.Second)
	svc.Treasury.Overview(ctx)
	assert.Equal(t, 1, api.count("GET", "treasury"))

	clock.Advance(20 * time.Second)
	svc.Treasury.Overview(ctx)
	assert.Equal(t, 2, api.count("GET", "treasury"))
}

func TestInvalidAddressNeverReachesBackend(t *testing.T) {
	api := newFakeAPI()
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	_, err := svc.Admins.Add.MutateAsync(ctx, dto.AdminCreatePayload{Name: "x", Address: "0x123"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = svc.Treasury.DeleteWallet.MutateAsync(ctx, "not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = svc.Auth.Challenge(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Empty(t, api.requests)
}

func TestAddWalletInvalidatesTreasury(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "treasury", `{"wallets":[]}`)
	api.json("GET", "treasury/wallets", `[]`)
	api.json("POST", "treasury/wallets", `{"address":"`+adminAddr+`"}`)
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	svc.Treasury.Overview(ctx)
	svc.Treasury.Wallets(ctx)

	w, err := svc.Treasury.AddWallet.MutateAsync(ctx, "  "+adminAddr+" ")
	require.NoError(t, err)
	assert.Equal(t, adminAddr, w.Address)
	assert.Equal(t, "https://etherscan.io/address/"+adminAddr, w.ExplorerURL)

	svc.Cache().Wait()
	assert.Equal(t, 2, api.count("GET", "treasury"))
	assert.Equal(t, 2, api.count("GET", "treasury/wallets"))
}

func TestDeleteExpenseRemovesDetail(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "expenses/e1", `{"id":"e1","item":"Desk"}`)
	api.on("DELETE", "expenses/e1", func(port.Request) (*port.Response, error) {
		return &port.Response{StatusCode: 204}, nil
	})
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	require.True(t, svc.Expenses.Get(ctx, "e1").IsSuccess())
	_, err := svc.Expenses.Delete.MutateAsync(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, query.Peek[entity.Expense](svc.Cache(), ExpenseKey("e1")).IsPending())

	st := svc.Expenses.Get(ctx, " ")
	assert.ErrorIs(t, st.Err, ErrEmptyID)
}

func TestDeleteReceiptRefetchesExpense(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "expenses/e1", `{"id":"e1","item":"Desk","receipts":[{"uuid":"r1","name":"desk.pdf"}]}`)
	api.on("DELETE", "receipts/r1", func(port.Request) (*port.Response, error) {
		return &port.Response{StatusCode: 204}, nil
	})
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	require.True(t, svc.Expenses.Get(ctx, "e1").IsSuccess())
	_, err := svc.Expenses.DeleteReceipt.MutateAsync(ctx, DeleteReceiptInput{ExpenseID: "e1", ReceiptID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("DELETE", "receipts/r1"))

	svc.Cache().Wait()
	svc.Expenses.Get(ctx, "e1")
	assert.Equal(t, 2, api.count("GET", "expenses/e1"))

	_, err = svc.Expenses.DeleteReceipt.MutateAsync(ctx, DeleteReceiptInput{ExpenseID: "e1"})
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestGrantSubResources(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "grants/g1/milestones", `{"items":[{"id":"m1","name":"Kickoff","signedOff":true}],"total":1}`)
	api.json("GET", "grants/g1/disbursements", `{"data":[{"id":"d1","amount":"500","txHash":"0xabc"}]}`)
	api.json("GET", "grants/g1/funds-usage", `[{"id":"e9","item":"Audit","price":"250"}]`)
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	ms := svc.Grants.Milestones(ctx, "g1")
	require.Len(t, ms.Data, 1)
	assert.Equal(t, entity.MilestoneSignedOff, ms.Data[0].Status)

	ds := svc.Grants.Disbursements(ctx, "g1")
	require.Len(t, ds.Data, 1)
	assert.Equal(t, 500.0, ds.Data[0].Amount)

	fu := svc.Grants.FundsUsage(ctx, "g1")
	require.Len(t, fu.Data, 1)
	assert.Equal(t, 1.0, fu.Data[0].Quantity)
}

func TestOverDisbursementPolicy(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "grants/g1", `{"id":"g1","totalGrantAmount":"1000","amountGivenSoFar":"800","disbursements":[{"id":"d1","amount":"300"}]}`)
	api.on("POST", "grants/g1/disbursements", func(port.Request) (*port.Response, error) {
		return &port.Response{StatusCode: 204}, nil
	})
	api.on("PUT", "grants/g1/disbursements/d1", func(port.Request) (*port.Response, error) {
		return &port.Response{StatusCode: 204}, nil
	})
	ctx := context.Background()

	strict, _, _ := newServices(t, api, Options{RejectOverDisbursement: true})
	require.True(t, strict.Grants.Get(ctx, "g1").IsSuccess())

	_, err := strict.Grants.CreateDisbursement.MutateAsync(ctx, DisbursementInput{
		GrantID: "g1", Payload: dto.GrantDisbursementPayload{Amount: "250"},
	})
	assert.ErrorIs(t, err, ErrOverDisbursement)
	assert.Equal(t, 0, api.count("POST", "grants/g1/disbursements"))

	// Replacing d1 (300) with 450 lands at 950.
	_, err = strict.Grants.UpdateDisbursement.MutateAsync(ctx, DisbursementInput{
		GrantID: "g1", DisbursementID: "d1", Payload: dto.GrantDisbursementPayload{Amount: "450"},
	})
	assert.NoError(t, err)

	_, err = strict.Grants.Create.MutateAsync(ctx, dto.GrantPayload{TotalGrantAmount: "10", InitialGrantAmount: "20"})
	assert.ErrorIs(t, err, ErrOverDisbursement)

	lenient, _, _ := newServices(t, api, Options{})
	require.True(t, lenient.Grants.Get(ctx, "g1").IsSuccess())
	_, err = lenient.Grants.CreateDisbursement.MutateAsync(ctx, DisbursementInput{
		GrantID: "g1", Payload: dto.GrantDisbursementPayload{Amount: "250"},
	})
	assert.NoError(t, err)
}

func TestOverDisbursementPolicyLoadsUncachedGrant(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "grants/g1", `{"id":"g1","totalGrantAmount":"1000","amountGivenSoFar":"800"}`)
	api.on("POST", "grants/g1/disbursements", func(port.Request) (*port.Response, error) {
		return &port.Response{StatusCode: 204}, nil
	})
	ctx := context.Background()
	strict, _, _ := newServices(t, api, Options{RejectOverDisbursement: true})

	_, err := strict.Grants.CreateDisbursement.MutateAsync(ctx, DisbursementInput{
		GrantID: "g1", Payload: dto.GrantDisbursementPayload{Amount: "250"},
	})
	assert.ErrorIs(t, err, ErrOverDisbursement)
	assert.Equal(t, 1, api.count("GET", "grants/g1"))
	assert.Equal(t, 0, api.count("POST", "grants/g1/disbursements"))

	_, err = strict.Grants.CreateDisbursement.MutateAsync(ctx, DisbursementInput{
		GrantID: "g1", Payload: dto.GrantDisbursementPayload{Amount: "150"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("POST", "grants/g1/disbursements"))

	// A grant that cannot be loaded blocks the write.
	_, err = strict.Grants.CreateDisbursement.MutateAsync(ctx, DisbursementInput{
		GrantID: "g2", Payload: dto.GrantDisbursementPayload{Amount: "1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grant g2")
	assert.Equal(t, 0, api.count("POST", "grants/g2/disbursements"))
}

func TestUpdatePartyInvalidatesTransfers(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "transfers", `[{"txHash":"0x1","payer_name":"unknown","payerName":"Alice"}]`)
	api.json("GET", "transfer-parties", `[]`)
	api.json("PUT", "transfer-parties/"+adminAddr, `{}`)
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	st := svc.Transfers.List(ctx, Page{})
	require.Len(t, st.Data, 1)
	assert.Equal(t, "Alice", st.Data[0].PayerName)
	svc.Transfers.Parties(ctx, Page{})

	p, err := svc.Transfers.UpdateParty.MutateAsync(ctx, UpdatePartyInput{Address: adminAddr, Name: " Ops "})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferParty{Name: "Ops", Address: adminAddr}, p)

	svc.Cache().Wait()
	assert.Equal(t, 2, api.count("GET", "transfers"))
	assert.Equal(t, 2, api.count("GET", "transfer-parties"))
}

type fakeSigner struct{}

func (fakeSigner) Address() string { return adminAddr }
func (fakeSigner) SignMessage(message string) (string, error) {
	return "sig:" + message, nil
}

func TestSignInStoresToken(t *testing.T) {
	api := newFakeAPI()
	api.on("GET", "auth/challenge/"+adminAddr, func(req port.Request) (*port.Response, error) {
		assert.True(t, req.SkipAuth)
		return &port.Response{StatusCode: 200, Body: []byte("Sign in please")}, nil
	})
	api.on("POST", "auth/login", func(req port.Request) (*port.Response, error) {
		assert.True(t, req.SkipAuth)
		body := req.Body.(dto.AuthLoginPayload)
		assert.Equal(t, "sig:Sign in please", body.Signature)
		return &port.Response{StatusCode: 200, JSON: true, Body: []byte(`{"token":"jwt"}`)}, nil
	})
	svc, _, auth := newServices(t, api, Options{})

	token, err := svc.Auth.SignIn(context.Background(), fakeSigner{})
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
	assert.True(t, auth.IsAuthenticated())
	assert.Equal(t, adminAddr, auth.State().Admin.Address)

	require.NoError(t, svc.Auth.Logout())
	assert.False(t, auth.IsAuthenticated())
}

func TestAuditLogRejectsUnknownActionFilter(t *testing.T) {
	api := newFakeAPI()
	api.json("GET", "admin-actions", `[{"id":"a1","action":"update_settings","timestamp":1700000000}]`)
	svc, _, _ := newServices(t, api, Options{})
	ctx := context.Background()

	st := svc.AuditLog.List(ctx, AuditLogQuery{Action: "drop_tables"})
	assert.True(t, st.IsError())
	assert.Empty(t, api.requests)

	st = svc.AuditLog.List(ctx, AuditLogQuery{Action: string(entity.ActionAddAdmin)})
	require.True(t, st.IsSuccess())
	assert.Equal(t, entity.AdminAction("update_settings"), st.Data[0].Action, "unknown actions on read pass through")
}

func TestQueryErrorCarriesAPIError(t *testing.T) {
	api := newFakeAPI()
	boom := errors.New("backend exploded")
	api.on("GET", "categories", func(port.Request) (*port.Response, error) { return nil, boom })
	svc, _, _ := newServices(t, api, Options{})

	data, err := svc.Categories.List(context.Background()).Result()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, data)
	assert.Equal(t, 1, api.count("GET", "categories"), "non-transient errors are not retried")
}
