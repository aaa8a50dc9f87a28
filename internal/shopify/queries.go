package shopify

const moneyFields = `amount currencyCode`

const mailingAddressFields = `
  ... on MailingAddress {
    address1
    address2
    city
    company
    country
    firstName
    lastName
    phone
    province
    zip
  }`

const cartFragment = `
fragment CartFragment on Cart {
  id
  checkoutUrl
  createdAt
  updatedAt
  totalQuantity
  buyerIdentity {
    countryCode
    email
    phone
    customer { id email firstName lastName }
    deliveryAddressPreferences {` + mailingAddressFields + `
    }
  }
  attributes { key value }
  cost {
    totalAmount { ` + moneyFields + ` }
    subtotalAmount { ` + moneyFields + ` }
    totalTaxAmount { ` + moneyFields + ` }
    totalDutyAmount { ` + moneyFields + ` }
    checkoutChargeAmount { ` + moneyFields + ` }
  }
  discountCodes { code applicable }
  discountAllocations {
    discountedAmount { ` + moneyFields + ` }
    targetType
  }
  lines(first: 250) {
    edges {
      node {
        id
        quantity
        attributes { key value }
        cost {
          totalAmount { ` + moneyFields + ` }
          amountPerQuantity { ` + moneyFields + ` }
          compareAtAmountPerQuantity { ` + moneyFields + ` }
        }
        merchandise {
          ... on ProductVariant {
            id
            title
            product { id title handle productType vendor }
            selectedOptions { name value }
            image {
              id
              url(transform: { maxWidth: 300, maxHeight: 300 })
              altText
              width
              height
            }
            price { ` + moneyFields + ` }
            compareAtPrice { ` + moneyFields + ` }
            availableForSale
            quantityAvailable
          }
        }
        sellingPlanAllocation {
          sellingPlan { id name description }
        }
      }
    }
  }
  deliveryGroups(first: 250) {
    edges {
      node {
        id
        deliveryAddress {` + mailingAddressFields + `
        }
        cartLines(first: 250) {
          edges { node { id } }
        }
      }
    }
  }
  note
}
`

const cartQuery = `
query GetCart($cartId: ID!) {
  cart(id: $cartId) { ...CartFragment }
}
` + cartFragment

// cartMutation builds a cart mutation that returns the full cart and its user errors.
func cartMutation(name, field, params, args string) string {
	return `
mutation ` + name + `(` + params + `) {
  ` + field + `(` + args + `) {
    cart { ...CartFragment }
    userErrors { field message code }
  }
}
` + cartFragment
}

var (
	cartCreateMutation        = cartMutation("CartCreate", "cartCreate", "$input: CartInput!", "input: $input")
	cartLinesAddMutation      = cartMutation("CartLinesAdd", "cartLinesAdd", "$cartId: ID!, $lines: [CartLineInput!]!", "cartId: $cartId, lines: $lines")
	cartLinesUpdateMutation   = cartMutation("CartLinesUpdate", "cartLinesUpdate", "$cartId: ID!, $lines: [CartLineUpdateInput!]!", "cartId: $cartId, lines: $lines")
	cartLinesRemoveMutation   = cartMutation("CartLinesRemove", "cartLinesRemove", "$cartId: ID!, $lineIds: [ID!]!", "cartId: $cartId, lineIds: $lineIds")
	cartBuyerIdentityMutation = cartMutation("CartBuyerIdentityUpdate", "cartBuyerIdentityUpdate", "$cartId: ID!, $buyerIdentity: CartBuyerIdentityInput!", "cartId: $cartId, buyerIdentity: $buyerIdentity")
	cartAttributesMutation    = cartMutation("CartAttributesUpdate", "cartAttributesUpdate", "$cartId: ID!, $attributes: [AttributeInput!]!", "cartId: $cartId, attributes: $attributes")
	cartDiscountCodesMutation = cartMutation("CartDiscountCodesUpdate", "cartDiscountCodesUpdate", "$cartId: ID!, $discountCodes: [String!]!", "cartId: $cartId, discountCodes: $discountCodes")
	cartNoteMutation          = cartMutation("CartNoteUpdate", "cartNoteUpdate", "$cartId: ID!, $note: String!", "cartId: $cartId, note: $note")
)

const imageFields = `id url altText width height`

const productFields = `
  id
  title
  handle
  description
  descriptionHtml
  availableForSale
  createdAt
  updatedAt
  productType
  vendor
  tags
  totalInventory
  priceRange {
    minVariantPrice { ` + moneyFields + ` }
    maxVariantPrice { ` + moneyFields + ` }
  }
  compareAtPriceRange {
    minVariantPrice { ` + moneyFields + ` }
    maxVariantPrice { ` + moneyFields + ` }
  }
  images(first: 10) { edges { node { ` + imageFields + ` } } }
  variants(first: 10) {
    edges {
      node {
        id
        title
        availableForSale
        price { ` + moneyFields + ` }
        compareAtPrice { ` + moneyFields + ` }
        selectedOptions { name value }
        quantityAvailable
        image { ` + imageFields + ` }
      }
    }
  }
  options { id name values }
`

const pageInfoFields = `pageInfo { hasNextPage hasPreviousPage startCursor endCursor }`

const productsQuery = `
query GetProducts($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    edges { node {` + productFields + `} }
    ` + pageInfoFields + `
  }
}
`

const productByHandleQuery = `
query GetProductByHandle($handle: String!) {
  productByHandle(handle: $handle) {` + productFields + `}
}
`

const collectionsQuery = `
query GetCollections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    edges {
      node {
        id
        title
        handle
        description
        descriptionHtml
        image { ` + imageFields + ` }
        products(first: 10) {
          edges {
            node {
              id
              title
              handle
              priceRange { minVariantPrice { ` + moneyFields + ` } maxVariantPrice { ` + moneyFields + ` } }
              images(first: 1) { edges { node { ` + imageFields + ` } } }
            }
          }
        }
      }
    }
    ` + pageInfoFields + `
  }
}
`

const collectionByHandleQuery = `
query GetCollectionByHandle($handle: String!) {
  collectionByHandle(handle: $handle) {
    id
    title
    handle
    description
    descriptionHtml
    image { ` + imageFields + ` }
    products(first: 50) {
      edges {
        node {
          id
          title
          handle
          description
          availableForSale
          priceRange { minVariantPrice { ` + moneyFields + ` } maxVariantPrice { ` + moneyFields + ` } }
          images(first: 3) { edges { node { ` + imageFields + ` } } }
        }
      }
    }
  }
}
`

const shopQuery = `
query GetShop {
  shop {
    name
    description
    primaryDomain { url }
    paymentSettings { currencyCode }
  }
}
`

const storeStatusQuery = `
query TestStoreAccess {
  shop { name description primaryDomain { url } paymentSettings { currencyCode } }
  products(first: 1) { edges { node { id title } } }
}
`
