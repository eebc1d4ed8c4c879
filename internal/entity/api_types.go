package entity

// Wire shapes of the transparency backend. Fields the backend sends inconsistently
// (string or number, several spellings) are kept loose here and normalized by the mapper.

// TreasuryAssetDTO is an asset entry of GET /treasury and GET /treasury/assets.
type TreasuryAssetDTO struct {
	Name     string  `json:"name"`
	Amount   Value   `json:"amount"`
	UsdWorth Value   `json:"usdWorth"`
	EthWorth Value   `json:"ethWorth"`
	Address  *string `json:"address,omitempty"`
	Symbol   *string `json:"symbol,omitempty"`
	Decimals Value   `json:"decimals"`
}

// TreasuryWalletDTO is a registered treasury wallet.
type TreasuryWalletDTO struct {
	Address       string  `json:"address"`
	EtherscanLink *string `json:"etherscanLink,omitempty"`
}

// TreasuryWalletBalanceDTO is one asset balance held by one wallet.
type TreasuryWalletBalanceDTO struct {
	ChainID     Value   `json:"chainId"`
	Address     *string `json:"address"`
	Wallet      string  `json:"wallet"`
	Amount      Value   `json:"amount"`
	UsdWorth    Value   `json:"usdWorth"`
	EthWorth    Value   `json:"ethWorth"`
	LastUpdated *string `json:"lastUpdated,omitempty"`
	AssetName   *string `json:"assetName,omitempty"`
	AssetSymbol *string `json:"assetSymbol,omitempty"`
}

// TreasuryResponseDTO is the body of GET /treasury.
type TreasuryResponseDTO struct {
	OrganizationName     *string                     `json:"organizationName"`
	Assets               []*TreasuryAssetDTO         `json:"assets"`
	WalletBalances       []*TreasuryWalletBalanceDTO `json:"walletBalances"`
	Wallets              []*TreasuryWalletDTO        `json:"wallets"`
	TotalValueUsd        Value                       `json:"totalValueUsd"`
	TotalValueEth        Value                       `json:"totalValueEth"`
	TotalFundsRaised     Value                       `json:"totalFundsRaised"`
	TotalFundsRaisedUnit *string                     `json:"totalFundsRaisedUnit"`
	LastUpdated          Value                       `json:"lastUpdated"`
}

// TreasuryWalletPayload is the body of POST /treasury/wallets.
type TreasuryWalletPayload struct {
	Address string `json:"address"`
}

// TreasuryAssetPayload is the body of POST /treasury/assets.
type TreasuryAssetPayload struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// TransferPartyDTO names an on-chain address.
type TransferPartyDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// TransferPartyPayload is the body of POST /transfer-parties.
type TransferPartyPayload struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// TransferPartyUpdatePayload is the body of PUT /transfer-parties/:address.
type TransferPartyUpdatePayload struct {
	Name string `json:"name"`
}

// TransferDTO is a transfer row. Party names and addresses arrive in snake_case,
// camelCase or as a nested party object depending on the backend revision.
type TransferDTO struct {
	Chain          string            `json:"chain"`
	TxHash         string            `json:"txHash"`
	EtherscanLink  string            `json:"etherscanLink"`
	Direction      string            `json:"direction"`
	PayerNameSnake *string           `json:"payer_name,omitempty"`
	PayerName      *string           `json:"payerName,omitempty"`
	PayerAddrSnake *string           `json:"payer_address,omitempty"`
	PayerAddress   *string           `json:"payerAddress,omitempty"`
	PayeeNameSnake *string           `json:"payee_name,omitempty"`
	PayeeName      *string           `json:"payeeName,omitempty"`
	PayeeAddrSnake *string           `json:"payee_address,omitempty"`
	PayeeAddress   *string           `json:"payeeAddress,omitempty"`
	Payer          *TransferPartyDTO `json:"payer,omitempty"`
	Payee          *TransferPartyDTO `json:"payee,omitempty"`
	Timestamp      Value             `json:"timestamp"`
	BlockTimestamp Value             `json:"blockTimestamp"`
	BlockNumber    Value             `json:"blockNumber"`
	Asset          string            `json:"asset"`
	AssetSymbol    *string           `json:"assetSymbol,omitempty"`
	AssetSymSnake  *string           `json:"asset_symbol,omitempty"`
	Amount         Value             `json:"amount"`
}

// ExpenseReceiptDTO references an uploaded receipt file.
type ExpenseReceiptDTO struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	DownloadURL string `json:"downloadUrl"`
}

// ExpenseDTO is an expense row.
type ExpenseDTO struct {
	ID       string               `json:"id"`
	Item     string               `json:"item"`
	Quantity Value                `json:"quantity"`
	Price    Value                `json:"price"`
	Purpose  string               `json:"purpose"`
	Category string               `json:"category"`
	Receipts []*ExpenseReceiptDTO `json:"receipts"`
	Date     Value                `json:"date"`
	TxHash   *string              `json:"txHash,omitempty"`
}

// ExpensePayload is the body of POST /expenses and PUT /expenses/:id. Grant funds
// usage entries share the same shape.
type ExpensePayload struct {
	Item     string  `json:"item"`
	Quantity int     `json:"quantity"`
	Price    string  `json:"price"`
	Purpose  string  `json:"purpose"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	TxHash   *string `json:"txHash,omitempty"`
}

// CategoryDTO is an expense category.
type CategoryDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AdminDTO is a dashboard administrator.
type AdminDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// AdminCreatePayload is the body of POST /admins.
type AdminCreatePayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// AdminActionDTO is an audit log row.
type AdminActionDTO struct {
	ID           string         `json:"id"`
	AdminAddress string         `json:"adminAddress"`
	AdminName    string         `json:"adminName"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    Value          `json:"timestamp"`
}

// GrantDisbursementDTO is a payment made against a grant.
type GrantDisbursementDTO struct {
	ID             string `json:"id"`
	GrantID        string `json:"grantId"`
	Amount         Value  `json:"amount"`
	TxHash         string `json:"txHash"`
	BlockNumber    Value  `json:"blockNumber"`
	BlockTimestamp Value  `json:"blockTimestamp"`
	CreatedAt      Value  `json:"createdAt"`
}

// GrantDisbursementPayload is the body of POST/PUT /grants/:id/disbursements.
type GrantDisbursementPayload struct {
	Amount         string `json:"amount"`
	TxHash         string `json:"txHash"`
	BlockNumber    int64  `json:"blockNumber"`
	BlockTimestamp int64  `json:"blockTimestamp"`
}

// GrantMilestoneDTO is a grant milestone.
type GrantMilestoneDTO struct {
	ID          string  `json:"id"`
	GrantID     string  `json:"grantId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	GrantAmount Value   `json:"grantAmount"`
	Status      *string `json:"status,omitempty"`
	Completed   bool    `json:"completed"`
	OrderIndex  Value   `json:"orderIndex"`
	SignedOff   bool    `json:"signedOff"`
	CreatedAt   Value   `json:"createdAt"`
	UpdatedAt   Value   `json:"updatedAt"`
}

// GrantMilestonesResponse is the paged milestone envelope some backend revisions return.
type GrantMilestonesResponse struct {
	Items []*GrantMilestoneDTO `json:"items"`
	Total int                  `json:"total"`
}

// GrantDTO is a grant with its nested milestones, disbursements and funds usage.
type GrantDTO struct {
	ID                     string                  `json:"id"`
	Name                   string                  `json:"name"`
	RecipientName          string                  `json:"recipientName"`
	Description            string                  `json:"description"`
	TeamURL                *string                 `json:"teamUrl,omitempty"`
	ProjectURL             *string                 `json:"projectUrl,omitempty"`
	Status                 string                  `json:"status"`
	RecipientAddress       string                  `json:"recipientAddress"`
	TotalGrantAmount       Value                   `json:"totalGrantAmount"`
	InitialGrantAmount     Value                   `json:"initialGrantAmount"`
	StartDate              Value                   `json:"startDate"`
	ExpectedCompletionDate Value                   `json:"expectedCompletionDate"`
	Disbursements          []*GrantDisbursementDTO `json:"disbursements"`
	FundsUsage             []*ExpenseDTO           `json:"fundsUsage"`
	AmountGivenSoFar       Value                   `json:"amountGivenSoFar"`
	Milestones             []*GrantMilestoneDTO    `json:"milestones"`
}

// GrantMilestoneInput is one milestone of a grant create/update payload.
type GrantMilestoneInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	GrantAmount string `json:"grantAmount"`
	Completed   bool   `json:"completed,omitempty"`
	SignedOff   bool   `json:"signedOff,omitempty"`
}

// GrantPayload is the body of POST /grants and PUT /grants/:id.
type GrantPayload struct {
	Name                   string                `json:"name"`
	RecipientName          string                `json:"recipientName"`
	RecipientAddress       string                `json:"recipientAddress"`
	Description            string                `json:"description"`
	TeamURL                *string               `json:"teamUrl,omitempty"`
	ProjectURL             *string               `json:"projectUrl,omitempty"`
	Status                 string                `json:"status"`
	TotalGrantAmount       string                `json:"totalGrantAmount"`
	InitialGrantAmount     string                `json:"initialGrantAmount"`
	StartDate              string                `json:"startDate"`
	ExpectedCompletionDate string                `json:"expectedCompletionDate"`
	Milestones             []GrantMilestoneInput `json:"milestones"`
	FundsUsage             []string              `json:"fundsUsage,omitempty"`
}

// GrantMilestoneUpdate is one entry of PUT /grants/:id/milestones.
type GrantMilestoneUpdate struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Status      string `json:"status,omitempty"`
	Completed   bool   `json:"completed,omitempty"`
	SignedOff   bool   `json:"signedOff,omitempty"`
}

// GrantMilestoneUpdatePayload is the body of PUT /grants/:id/milestones.
type GrantMilestoneUpdatePayload struct {
	Milestones []GrantMilestoneUpdate `json:"milestones"`
}

// MonthlyBudgetAllocationDTO is a monthly budget line.
type MonthlyBudgetAllocationDTO struct {
	ID        string  `json:"id"`
	Manager   *string `json:"manager"`
	Category  string  `json:"category"`
	Amount    Value   `json:"amount"`
	CreatedAt Value   `json:"createdAt"`
	UpdatedAt Value   `json:"updatedAt"`
}

// MonthlyBudgetAllocationPayload is the body of POST/PUT /budgets/allocations.
type MonthlyBudgetAllocationPayload struct {
	Manager  *string `json:"manager"`
	Category string  `json:"category"`
	Amount   string  `json:"amount"`
}

// CreatedIDResponse is returned by create endpoints that only echo the new id.
type CreatedIDResponse struct {
	ID string `json:"id"`
}

// AuthChallengeDTO is the body of GET /auth/challenge/:address.
type AuthChallengeDTO struct {
	Message string `json:"message"`
}

// AuthLoginPayload is the body of POST /auth/login.
type AuthLoginPayload struct {
	SiweMessage string `json:"siweMessage"`
	Signature   string `json:"signature"`
}

// AuthLoginResponseDTO is the body returned by POST /auth/login.
type AuthLoginResponseDTO struct {
	Token string `json:"token"`
}

// OrganizationNamePayload is the body of POST /settings/name.
type OrganizationNamePayload struct {
	Name string `json:"name"`
}

// TotalFundsRaisedPayload is the body of POST /settings/total-funds-raised.
type TotalFundsRaisedPayload struct {
	TotalFundsRaised string `json:"totalFundsRaised"`
}

// TotalFundsRaisedUnitPayload is the body of POST /settings/total-funds-raised-unit.
type TotalFundsRaisedUnitPayload struct {
	Unit string `json:"unit"`
}
