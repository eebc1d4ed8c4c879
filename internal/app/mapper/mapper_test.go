package mapper

import (
	"testing"
	"time"

	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func strPtr(s string) *string { return &s }

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   dto.Value
		want float64
	}{
		{dto.StringValue("12.5"), 12.5},
		{dto.StringValue("  7 apples"), 7},
		{dto.StringValue("1e3"), 1000},
		{dto.StringValue("abc"), 0},
		{dto.StringValue(""), 0},
		{dto.StringValue("Infinity"), 0},
		{dto.NumberValue(-3.25), -3.25},
		{dto.Value{}, 0},
		{decode[dto.Value](t, "true"), 0},
		{decode[dto.Value](t, `{"a":1}`), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToNumber(tc.in), "input %q", tc.in.Raw())
	}
}

func TestToDateSecondsAndMillisAgree(t *testing.T) {
	fromSeconds := ToDate(dto.StringValue("1700000000"), DefaultEpochMillisThreshold)
	fromMillis := ToDate(dto.IntValue(1700000000000), DefaultEpochMillisThreshold)

	assert.True(t, fromSeconds.Equal(fromMillis))
	assert.Equal(t, time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC), fromSeconds)
}

func TestToDateFallsBackToEpoch(t *testing.T) {
	for _, v := range []dto.Value{
		{},
		dto.StringValue(""),
		dto.StringValue("   "),
		dto.StringValue("not-a-date"),
		dto.NumberValue(1e300),
		decode[dto.Value](t, "false"),
	} {
		assert.True(t, ToDate(v, DefaultEpochMillisThreshold).Equal(Epoch), "input %q", v.Raw())
	}
}

func TestToDateParsesText(t *testing.T) {
	got := ToDate(dto.StringValue("2024-02-29T12:30:00Z"), DefaultEpochMillisThreshold)
	assert.Equal(t, time.Date(2024, time.February, 29, 12, 30, 0, 0, time.UTC), got)

	got = ToDate(dto.StringValue("2024-02-29"), DefaultEpochMillisThreshold)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)

	// Not a canonical number, so it is not read as an epoch.
	got = ToDate(dto.StringValue("1700000000.0"), DefaultEpochMillisThreshold)
	assert.True(t, got.Equal(Epoch))
}

func TestToDateThresholdIsConfigurable(t *testing.T) {
	v := dto.IntValue(900000000000) // 2.5e10 s or 1998 in ms
	assert.Equal(t, 1998, ToDate(v, 1e11).Year())
	assert.Greater(t, ToDate(v, DefaultEpochMillisThreshold).Year(), 30000)
}

func TestResolveName(t *testing.T) {
	assert.Equal(t, "Bob", ResolveName(strPtr(""), strPtr("unknown"), strPtr("Bob")))
	assert.Equal(t, "Unknown", ResolveName(nil, strPtr("")))
	assert.Equal(t, "UNKNOWN", ResolveName(strPtr(" UNKNOWN "), nil))
	assert.Equal(t, "Alice", ResolveName(strPtr("  Alice ")))
}

func TestResolveAddress(t *testing.T) {
	assert.Equal(t, "0xabc", ResolveAddress(nil, strPtr("  "), strPtr(" 0xabc ")))
	assert.Equal(t, "", ResolveAddress(nil, strPtr("")))
}

func TestListEnvelopeExtraction(t *testing.T) {
	type row struct {
		ID int `json:"id"`
	}
	want := []row{{ID: 1}, {ID: 2}}

	assert.Equal(t, want, ExtractList[row]([]byte(`[{"id":1},{"id":2}]`)))
	assert.Equal(t, want, ExtractList[row]([]byte(`{"data":[{"id":1},{"id":2}]}`)))
	assert.Empty(t, ExtractList[row]([]byte(`{}`)))
	assert.NotNil(t, ExtractList[row]([]byte(`{"data":null}`)))
	assert.Empty(t, ExtractList[row]([]byte(`{"data":null}`)))
	assert.Empty(t, ExtractList[row]([]byte(`not json`)))
	assert.Equal(t, []row{{ID: 0}, {ID: 3}}, ExtractList[row]([]byte(`[{"id":"bad"},{"id":3}]`)), "mistyped fields fall back to zero")
	assert.Equal(t, []row{{ID: 3}}, ExtractList[row]([]byte(`[null,"x",7,{"id":3}]`)), "non-object elements are skipped")
}

func TestMistypedFieldsKeepTheRow(t *testing.T) {
	m := New()

	t.Run("transfers", func(t *testing.T) {
		got := m.Transfers([]byte(`[
			{"chain":1,"txHash":"0xa","amount":"5","asset":"ETH"},
			{"chain":"base","txHash":"0xb","amount":2}]`))
		require.Len(t, got, 2)
		assert.Equal(t, "", got[0].Chain)
		assert.Equal(t, "0xa", got[0].TxHash)
		assert.Equal(t, 5.0, got[0].Amount)
		assert.Equal(t, "base", got[1].Chain)
	})

	t.Run("expenses", func(t *testing.T) {
		got := m.Expenses([]byte(`{"data":[
			{"id":"e1","item":42,"price":"10","category":"Ops","receipts":{"uuid":"r1"}},
			{"id":"e2","item":"Desk","price":5}]}`))
		require.Len(t, got, 2)
		assert.Equal(t, "e1", got[0].ID)
		assert.Equal(t, "", got[0].Item)
		assert.Equal(t, 10.0, got[0].Price)
		assert.Equal(t, "Ops", got[0].Category)
		assert.Empty(t, got[0].Receipts)
		assert.Equal(t, "Desk", got[1].Item)
	})

	t.Run("grant with a mistyped milestone", func(t *testing.T) {
		got := m.Grants([]byte(`[{"id":"g1","name":"Tooling","totalGrantAmount":"100",
			"milestones":[
				{"id":"m1","name":"Spec","completed":"true","signedOff":true},
				{"id":"m2","name":"Ship","completed":false}]}]`))
		require.Len(t, got, 1)
		assert.Equal(t, "g1", got[0].ID)
		assert.Equal(t, 100.0, got[0].TotalGrantAmount)
		require.Len(t, got[0].Milestones, 2)
		assert.Equal(t, "m1", got[0].Milestones[0].ID)
		assert.False(t, got[0].Milestones[0].Completed)
		assert.True(t, got[0].Milestones[0].SignedOff)
		assert.Equal(t, "Ship", got[0].Milestones[1].Name)
	})

	t.Run("single object", func(t *testing.T) {
		d := DecodeObject[dto.GrantDTO]([]byte(`{"id":"g2","status":7,"recipientName":"Lab"}`))
		assert.Equal(t, "g2", d.ID)
		assert.Equal(t, "", d.Status)
		assert.Equal(t, "Lab", d.RecipientName)
		assert.Empty(t, DecodeObject[dto.GrantDTO]([]byte(`{"id":`)).ID)
	})
}

func TestTreasuryAggregatesWalletBalances(t *testing.T) {
	body := `{
		"organizationName": "DAO",
		"totalValueUsd": "1200",
		"totalValueEth": 99,
		"assets": [
			{"name": "USD Coin", "address": "0xA0b8", "symbol": "USDC", "decimals": 6, "amount": "0", "usdWorth": "0", "ethWorth": "0"}
		],
		"walletBalances": [
			{"address": "0xa0b8", "wallet": "0x1", "amount": "10", "usdWorth": "100", "ethWorth": "0.03"},
			{"address": "0xA0B8", "wallet": "0x2", "amount": 5, "usdWorth": 50, "ethWorth": 0.02},
			{"address": "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", "wallet": "0x1", "amount": "2", "usdWorth": "1000", "ethWorth": "2"},
			{"wallet": "0x1", "amount": "99", "usdWorth": "99"}
		],
		"wallets": [{"address": "0x1"}, {"address": "0x2", "etherscanLink": "https://custom/0x2"}],
		"lastUpdated": 1700000000
	}`
	overview := New().Treasury(decode[*dto.TreasuryResponseDTO](t, body))

	require.Len(t, overview.Assets, 2)

	eth := overview.Assets[0]
	assert.Equal(t, "ETH", eth.Symbol)
	assert.Equal(t, "ETH", eth.Name)
	assert.Equal(t, 1000.0, eth.UsdWorth)

	usdc := overview.Assets[1]
	assert.Equal(t, 15.0, usdc.Amount)
	assert.Equal(t, 150.0, usdc.UsdWorth)
	assert.Equal(t, "USDC", usdc.Name)
	require.NotNil(t, usdc.Decimals)
	assert.Equal(t, 6, *usdc.Decimals)

	assert.InDelta(t, 2.05, overview.TotalValueETH, 1e-9, "ETH total comes from wallet balances")
	assert.Equal(t, 1200.0, overview.TotalValueUSD)
	assert.Equal(t, entity.FundsUnitUSD, overview.TotalFundsRaisedUnit)
	assert.Equal(t, int64(1700000000), overview.LastUpdated.Unix())

	require.Len(t, overview.Wallets, 2)
	assert.Equal(t, "https://etherscan.io/address/0x1", overview.Wallets[0].ExplorerURL)
	assert.Equal(t, "https://custom/0x2", overview.Wallets[1].ExplorerURL)
}

func TestTreasuryNameUpgradesFromAddress(t *testing.T) {
	body := `{
		"walletBalances": [
			{"address": "0xabc", "amount": "1", "usdWorth": "1"},
			{"address": "0xABC", "amount": "1", "usdWorth": "1", "assetName": "Token"}
		]
	}`
	overview := New().Treasury(decode[*dto.TreasuryResponseDTO](t, body))
	require.Len(t, overview.Assets, 1)
	assert.Equal(t, "Token", overview.Assets[0].Name)
	assert.Equal(t, 2.0, overview.Assets[0].Amount)
}

func TestTreasuryFallsBackToFlatAssets(t *testing.T) {
	body := `{
		"assets": [
			{"name": "Dai", "amount": "1", "usdWorth": "1", "ethWorth": "0"},
			{"name": "Ether", "symbol": "ETH", "amount": "3", "usdWorth": "9000", "ethWorth": "3", "decimals": "18"}
		],
		"totalValueEth": "3.5",
		"totalFundsRaisedUnit": "ETH"
	}`
	overview := New().Treasury(decode[*dto.TreasuryResponseDTO](t, body))

	require.Len(t, overview.Assets, 2)
	assert.Equal(t, "ETH", overview.Assets[0].Name)
	assert.Equal(t, "Dai", overview.Assets[1].Name)
	assert.Equal(t, 3.5, overview.TotalValueETH)
	assert.Equal(t, entity.FundsUnitETH, overview.TotalFundsRaisedUnit)
}

func TestTreasuryEmpty(t *testing.T) {
	overview := New().Treasury(nil)
	assert.NotNil(t, overview.Assets)
	assert.NotNil(t, overview.Wallets)
	assert.True(t, overview.LastUpdated.Equal(Epoch))
}

func TestTransferResolvesSpellings(t *testing.T) {
	body := `{
		"chain": "ethereum",
		"txHash": "0xhash",
		"direction": "outgoing",
		"payer_name": "unknown",
		"payerName": "Treasury",
		"payer": {"name": "ignored", "address": "0xpayer"},
		"payeeName": "",
		"payee": {"name": "Vendor", "address": "0xpayee"},
		"blockTimestamp": "1700000000",
		"blockNumber": 19000000,
		"asset": "0xa0b8",
		"asset_symbol": "USDC",
		"amount": "2500000"
	}`
	rec := New().Transfer(decode[*dto.TransferDTO](t, body))

	assert.Equal(t, "0xhash", rec.ID)
	assert.Equal(t, "Treasury", rec.PayerName)
	assert.Equal(t, "0xpayer", rec.PayerAddress)
	assert.Equal(t, "Vendor", rec.PayeeName)
	assert.Equal(t, "0xpayee", rec.PayeeAddress)
	assert.Equal(t, "USDC", rec.AssetSymbol)
	assert.Equal(t, 2500000.0, rec.Amount)
	assert.Equal(t, "2500000", rec.RawAmount)
	assert.Equal(t, int64(19000000), rec.BlockNumber)
	assert.Equal(t, int64(1700000000), rec.Timestamp.Unix())
	assert.Equal(t, "https://etherscan.io/tx/0xhash", rec.ExplorerURL)
}

func TestMappersAreTotalOnEmptyInput(t *testing.T) {
	m := New()

	rec := m.Transfer(decode[*dto.TransferDTO](t, `{}`))
	assert.Equal(t, entity.UnknownPartyName, rec.PayerName)
	assert.Equal(t, entity.UnknownPartyName, rec.PayeeName)
	assert.True(t, rec.Timestamp.Equal(Epoch))

	exp := m.Expense(decode[*dto.ExpenseDTO](t, `{}`))
	assert.NotNil(t, exp.Receipts)
	assert.Equal(t, 1.0, exp.Quantity)
	assert.True(t, exp.Date.Equal(Epoch))

	g := m.Grant(decode[*dto.GrantDTO](t, `{}`))
	assert.NotNil(t, g.Milestones)
	assert.NotNil(t, g.Disbursements)
	assert.NotNil(t, g.FundsUsage)
	assert.True(t, g.StartDate.Equal(Epoch))

	assert.NotPanics(t, func() {
		m.Transfer(nil)
		m.Expense(nil)
		m.Grant(nil)
		m.GrantMilestone(nil)
		m.GrantDisbursement(nil)
		m.AuditLogEntry(nil)
		m.BudgetAllocation(nil)
	})
}

func TestExpense(t *testing.T) {
	body := `{"id":"e1","item":"Laptop","quantity":"2","price":"1250.50","category":"Hardware",
		"purpose":"dev","date":"2024-01-15","txHash":" 0xtx ",
		"receipts":[{"uuid":"r1","name":"invoice.pdf","downloadUrl":"/receipts/r1"}, null]}`
	exp := New().Expense(decode[*dto.ExpenseDTO](t, body))

	assert.Equal(t, 2.0, exp.Quantity)
	assert.Equal(t, 1250.5, exp.Price)
	assert.Equal(t, 2501.0, exp.Total())
	assert.Equal(t, "0xtx", exp.TxHash)
	assert.Equal(t, []entity.ExpenseReceipt{{ID: "r1", Name: "invoice.pdf", DownloadURL: "/receipts/r1"}}, exp.Receipts)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), exp.Date)
}

func TestMilestoneStatusPrecedence(t *testing.T) {
	cases := []struct {
		body string
		want entity.MilestoneStatus
	}{
		{`{"signedOff":true,"completed":true,"status":"review"}`, entity.MilestoneSignedOff},
		{`{"completed":true,"status":"review"}`, entity.MilestoneCompleted},
		{`{"status":" in review "}`, entity.MilestoneStatus("in review")},
		{`{"status":""}`, entity.MilestonePending},
		{`{}`, entity.MilestonePending},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MilestoneStatus(decode[*dto.GrantMilestoneDTO](t, tc.body)), tc.body)
	}
}

func TestGrantMilestonesAcceptsBothShapes(t *testing.T) {
	m := New()
	arr := m.GrantMilestones([]byte(`[{"id":"m1","grantAmount":"100","orderIndex":2,"createdAt":"2024-01-01"}]`))
	env := m.GrantMilestones([]byte(`{"items":[{"id":"m1","grantAmount":"100","orderIndex":2,"createdAt":"2024-01-01"}],"total":1}`))

	require.Len(t, arr, 1)
	assert.Equal(t, arr, env)
	require.NotNil(t, arr[0].OrderIndex)
	assert.Equal(t, 2, *arr[0].OrderIndex)
	require.NotNil(t, arr[0].CreatedAt)
	assert.Nil(t, arr[0].UpdatedAt)
}

func TestGrantNestedRecords(t *testing.T) {
	body := `{
		"id": "g1", "name": "Tooling", "status": "milestone 1 of 3",
		"totalGrantAmount": "1000", "amountGivenSoFar": "1500",
		"milestones": [{"id": "m1", "completed": true}],
		"disbursements": [{"id": "d1", "amount": "500", "txHash": "0x1", "blockNumber": "123"}],
		"fundsUsage": [{"id": "e1", "price": "10"}]
	}`
	g := New().Grant(decode[*dto.GrantDTO](t, body))

	assert.True(t, g.OverDisbursed())
	assert.Equal(t, 0.0, g.Remaining())
	assert.False(t, g.Status.IsKnown(), "free-text statuses pass through")
	require.Len(t, g.Disbursements, 1)
	require.NotNil(t, g.Disbursements[0].BlockNumber)
	assert.Equal(t, int64(123), *g.Disbursements[0].BlockNumber)
	assert.Nil(t, g.Disbursements[0].BlockTimestamp)
	assert.Equal(t, entity.MilestoneCompleted, g.Milestones[0].Status)
	assert.Equal(t, 10.0, g.FundsUsage[0].Price)
}

func TestAuditLogKeepsUnknownActions(t *testing.T) {
	entries := New().AuditLog([]byte(`{"data":[
		{"id":"1","action":"create_expense","timestamp":"2024-03-01T10:00:00Z","details":{"item":"x"}},
		{"id":"2","action":"update_settings","timestamp":1709287200}
	]}`))

	require.Len(t, entries, 2)
	assert.True(t, entries[0].Action.IsKnown())
	assert.Equal(t, entity.AdminAction("update_settings"), entries[1].Action)
	assert.False(t, entries[1].Action.IsKnown())
	assert.Equal(t, "x", entries[0].Details["item"])
}

func TestBudgetAllocationKeepsDecimal(t *testing.T) {
	rows := New().BudgetAllocations([]byte(`[{"id":"b1","category":"Ops","amount":"1234.567","manager":" 0xm "},{"id":"b2","amount":12.5}]`))
	require.Len(t, rows, 2)
	assert.Equal(t, "1234.567", rows[0].Amount.String())
	assert.Equal(t, "0xm", rows[0].Manager)
	assert.Equal(t, "12.5", rows[1].Amount.String())
}
