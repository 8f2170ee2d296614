package usecase

import "gridstack/internal/models"

// TableVersion identifies the built-in use-case table. Bump it whenever a
// template or a type id changes.
const TableVersion = 1

const (
	typeWallet         = "692"
	typeDEX            = "25"
	typeBridge         = "23"
	typeGame           = "36"
	typeNFTMarketplace = "37"
	typePaymentGateway = "1751027652-xe6GoNmeSGG8RhO49gMPvQ"
	typeRPCProvider    = "305"
	typeDeveloperTools = "3607"
)

var builtin = []models.UseCaseTemplate{
	{
		ID:          "trading",
		Name:        "Trading Stack",
		Description: "Build your complete trading infrastructure with wallets, DEXs, and bridges",
		Icon:        "TrendingUp",
		Categories: []models.CategoryDefinition{
			{Name: "Wallet", ProductTypeIDs: []string{typeWallet}, Required: true},
			{Name: "DEX", ProductTypeIDs: []string{typeDEX}, Required: true},
			{Name: "Bridge", ProductTypeIDs: []string{typeBridge}, Required: false},
		},
	},
	{
		ID:          "gaming",
		Name:        "Gaming Stack",
		Description: "Create your gaming ecosystem with wallets, games, and NFT marketplaces",
		Icon:        "Gamepad2",
		Categories: []models.CategoryDefinition{
			{Name: "Wallet", ProductTypeIDs: []string{typeWallet}, Required: true},
			{Name: "Game", ProductTypeIDs: []string{typeGame}, Required: true},
			{Name: "NFT Marketplace", ProductTypeIDs: []string{typeNFTMarketplace}, Required: false},
		},
	},
	{
		ID:          "payments",
		Name:        "Payments Stack",
		Description: "Build payment infrastructure with wallets, gateways, and bridges",
		Icon:        "CreditCard",
		Categories: []models.CategoryDefinition{
			{Name: "Wallet", ProductTypeIDs: []string{typeWallet}, Required: true},
			{Name: "Payment Gateway", ProductTypeIDs: []string{typePaymentGateway}, Required: true},
			{Name: "Bridge", ProductTypeIDs: []string{typeBridge}, Required: false},
		},
	},
	{
		ID:          "nft",
		Name:        "NFT Stack",
		Description: "Set up your NFT platform with wallets, marketplaces, and bridges",
		Icon:        "Image",
		Categories: []models.CategoryDefinition{
			{Name: "Wallet", ProductTypeIDs: []string{typeWallet}, Required: true},
			{Name: "NFT Marketplace", ProductTypeIDs: []string{typeNFTMarketplace}, Required: true},
			{Name: "Bridge", ProductTypeIDs: []string{typeBridge}, Required: false},
		},
	},
	{
		ID:          "developer",
		Name:        "Developer Stack",
		Description: "Assemble developer tools with blockchains, RPC providers, and dev tools",
		Icon:        "Code",
		Categories: []models.CategoryDefinition{
			{Name: "Blockchain", ProductTypeIDs: []string{"15", "16", "17"}, Required: true},
			{Name: "RPC Provider", ProductTypeIDs: []string{typeRPCProvider}, Required: true},
			{Name: "Developer Tools", ProductTypeIDs: []string{typeDeveloperTools}, Required: true},
		},
	},
}
