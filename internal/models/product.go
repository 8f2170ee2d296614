package models

// ProfileSector is the sector a product's root profile belongs to.
type ProfileSector struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// ProfileInfo is the flattened profile of a product's root entity.
// The upstream returns a list; the gateway keeps only the first entry.
type ProfileInfo struct {
	Name             string         `json:"name"`
	Logo             string         `json:"logo,omitempty"`
	Icon             string         `json:"icon,omitempty"`
	DescriptionShort string         `json:"descriptionShort,omitempty"`
	DescriptionLong  string         `json:"descriptionLong,omitempty"`
	TagLine          string         `json:"tagLine,omitempty"`
	ProfileSector    *ProfileSector `json:"profileSector,omitempty"`
}

// Ranking carries the upstream connection score. A nil score means the
// upstream did not rank the product.
type Ranking struct {
	ConnectionScore *float64 `json:"connectionScore,omitempty"`
}

// Root is the entity that owns a product.
type Root struct {
	ProfileInfos   ProfileInfo `json:"profileInfos"`
	TheGridRanking *Ranking    `json:"theGridRanking,omitempty"`
}

// ProductType names the catalog type of a product.
type ProductType struct {
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

type Asset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Ticker string `json:"ticker,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

type AssetSupportType struct {
	Name string `json:"name"`
}

// ProductAssetRelationship links a product to an asset it supports.
type ProductAssetRelationship struct {
	Asset            Asset             `json:"asset"`
	AssetSupportType *AssetSupportType `json:"assetSupportType,omitempty"`
}

type SmartContract struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// DeployedOnProduct is the chain a deployment targets.
type DeployedOnProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SmartContractDeployment struct {
	DeployedOnProduct DeployedOnProduct `json:"deployedOnProduct"`
	SmartContracts    []SmartContract   `json:"smartContracts,omitempty"`
}

type ProductDeployment struct {
	SmartContractDeployment SmartContractDeployment `json:"smartContractDeployment"`
}

type SupportedProduct struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ProductType *ProductType `json:"productType,omitempty"`
}

type SupportsProduct struct {
	SupportsProduct SupportedProduct `json:"supportsProduct"`
}

type URLType struct {
	Name string `json:"name"`
}

type URL struct {
	URLType URLType `json:"urlType"`
	URL     string  `json:"url"`
}

// Product is the normalized catalog product returned by the gateway.
type Product struct {
	ID                        string                     `json:"id"`
	Name                      string                     `json:"name"`
	Description               string                     `json:"description,omitempty"`
	LaunchDate                string                     `json:"launchDate,omitempty"`
	ProductType               ProductType                `json:"productType"`
	Root                      Root                       `json:"root"`
	ProductDeployments        []ProductDeployment        `json:"productDeployments"`
	ProductAssetRelationships []ProductAssetRelationship `json:"productAssetRelationships"`
	SupportsProducts          []SupportsProduct          `json:"supportsProducts,omitempty"`
	URLs                      []URL                      `json:"urls,omitempty"`
}

// ChainIDs returns the ids of the chains the product is deployed on, in
// deployment order. Duplicates are kept; callers dedupe.
func (p Product) ChainIDs() []string {
	ids := make([]string, 0, len(p.ProductDeployments))
	for _, d := range p.ProductDeployments {
		if id := d.SmartContractDeployment.DeployedOnProduct.ID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// AssetIDs returns the ids of the assets the product supports, in
// relationship order.
func (p Product) AssetIDs() []string {
	ids := make([]string, 0, len(p.ProductAssetRelationships))
	for _, r := range p.ProductAssetRelationships {
		if r.Asset.ID != "" {
			ids = append(ids, r.Asset.ID)
		}
	}
	return ids
}

// ConnectionScore returns the upstream ranking, or 0 when unranked.
func (p Product) ConnectionScore() float64 {
	if p.Root.TheGridRanking == nil || p.Root.TheGridRanking.ConnectionScore == nil {
		return 0
	}
	return *p.Root.TheGridRanking.ConnectionScore
}

// DisplayName prefers the profile name over the product name.
func (p Product) DisplayName() string {
	if p.Root.ProfileInfos.Name != "" {
		return p.Root.ProfileInfos.Name
	}
	return p.Name
}
