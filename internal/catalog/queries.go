package catalog

// All three queries select chain and asset ids so any product they return
// can be scored.

const productsByTypeQuery = `
  query GetProductsByType($productTypeIds: [String!], $limit: Int = 50) {
    products(
      where: {
        productTypeId: {_in: $productTypeIds}
      }
      limit: $limit
    ) {
      id
      name
      description
      productType {
        name
        definition
      }
      root {
        profileInfos {
          name
          logo
          icon
          descriptionShort
          profileSector {
            name
            slug
          }
        }
        theGridRanking {
          connectionScore
        }
      }
      productDeployments {
        smartContractDeployment {
          deployedOnProduct {
            id
            name
          }
        }
      }
      productAssetRelationships(limit: 10) {
        asset {
          id
          name
          ticker
          icon
        }
        assetSupportType {
          name
        }
      }
    }
  }
`

const productDetailsQuery = `
  query GetProductDetails($productId: uuid!) {
    products(where: {id: {_eq: $productId}}) {
      id
      name
      description
      launchDate
      productType {
        name
        definition
      }
      root {
        profileInfos {
          name
          logo
          icon
          descriptionShort
          descriptionLong
          tagLine
          profileSector {
            name
            slug
          }
        }
        theGridRanking {
          connectionScore
        }
      }
      productDeployments {
        smartContractDeployment {
          deployedOnProduct {
            id
            name
          }
          smartContracts {
            address
            name
          }
        }
      }
      productAssetRelationships {
        asset {
          id
          name
          ticker
          icon
        }
        assetSupportType {
          name
        }
      }
      supportsProducts {
        supportsProduct {
          id
          name
          productType {
            name
          }
        }
      }
      urls {
        urlType {
          name
        }
        url
      }
    }
  }
`

const productRelationshipsQuery = `
  query GetProductRelationships($productIds: [uuid!]!) {
    products(where: {id: {_in: $productIds}}) {
      id
      name
      root {
        profileInfos {
          name
          logo
          icon
          descriptionShort
          profileSector {
            name
            slug
          }
        }
        theGridRanking {
          connectionScore
        }
      }
      supportsProducts {
        supportsProduct {
          id
          name
        }
      }
      productAssetRelationships {
        asset {
          id
          name
          ticker
        }
      }
      productDeployments {
        smartContractDeployment {
          deployedOnProduct {
            id
            name
          }
        }
      }
    }
  }
`
