package catalog

import (
	"cmp"
	"slices"

	"gridstack/internal/models"
)

// rawRoot is the upstream root, where profileInfos is a list.
type rawRoot struct {
	ProfileInfos   []models.ProfileInfo `json:"profileInfos"`
	TheGridRanking *models.Ranking      `json:"theGridRanking"`
}

type rawProduct struct {
	ID                        string                            `json:"id"`
	Name                      string                            `json:"name"`
	Description               string                            `json:"description"`
	LaunchDate                string                            `json:"launchDate"`
	ProductType               *models.ProductType               `json:"productType"`
	Root                      *rawRoot                          `json:"root"`
	ProductDeployments        []models.ProductDeployment        `json:"productDeployments"`
	ProductAssetRelationships []models.ProductAssetRelationship `json:"productAssetRelationships"`
	SupportsProducts          []models.SupportsProduct          `json:"supportsProducts"`
	URLs                      []models.URL                      `json:"urls"`
}

type productsData struct {
	Products []rawProduct `json:"products"`
}

// normalize flattens the upstream shape into models.Product.
func normalize(raw rawProduct) models.Product {
	p := models.Product{
		ID:                        raw.ID,
		Name:                      raw.Name,
		Description:               raw.Description,
		LaunchDate:                raw.LaunchDate,
		ProductDeployments:        raw.ProductDeployments,
		ProductAssetRelationships: raw.ProductAssetRelationships,
		SupportsProducts:          raw.SupportsProducts,
		URLs:                      raw.URLs,
	}
	if raw.ProductType != nil {
		p.ProductType = *raw.ProductType
	}
	if p.ProductDeployments == nil {
		p.ProductDeployments = []models.ProductDeployment{}
	}
	if p.ProductAssetRelationships == nil {
		p.ProductAssetRelationships = []models.ProductAssetRelationship{}
	}

	p.Root.ProfileInfos = models.ProfileInfo{
		Name:             raw.Name,
		DescriptionShort: raw.Description,
	}
	if raw.Root != nil {
		if len(raw.Root.ProfileInfos) > 0 {
			p.Root.ProfileInfos = raw.Root.ProfileInfos[0]
		}
		p.Root.TheGridRanking = raw.Root.TheGridRanking
	}
	return p
}

func normalizeAll(raws []rawProduct) []models.Product {
	out := make([]models.Product, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalize(raw))
	}
	return out
}

// SortByConnectionScore orders products by descending connection score,
// unranked products counting as zero. Ties keep their upstream order.
func SortByConnectionScore(products []models.Product) []models.Product {
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b models.Product) int {
		return cmp.Compare(b.ConnectionScore(), a.ConnectionScore())
	})
	return sorted
}
