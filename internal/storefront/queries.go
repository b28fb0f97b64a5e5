package storefront

// GraphQL documents for the Storefront API. Shared fragments are plain
// string constants concatenated into the operations that use them, so
// each document ships exactly the fragments it references.

const fragmentMoney = `
fragment MoneyFields on MoneyV2 {
  amount
  currencyCode
}
`

const fragmentImage = `
fragment ImageFields on Image {
  url
  altText
  width
  height
}
`

const fragmentProductCard = `
fragment ProductCard on Product {
  id
  handle
  title
  vendor
  featuredImage {
    ...ImageFields
  }
  priceRange {
    minVariantPrice {
      ...MoneyFields
    }
    maxVariantPrice {
      ...MoneyFields
    }
  }
}
`

const fragmentCart = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount {
      ...MoneyFields
    }
    totalAmount {
      ...MoneyFields
    }
    totalTaxAmount {
      ...MoneyFields
    }
  }
  lines(first: 100) {
    nodes {
      id
      quantity
      cost {
        totalAmount {
          ...MoneyFields
        }
      }
      merchandise {
        ... on ProductVariant {
          id
          title
          price {
            ...MoneyFields
          }
          image {
            ...ImageFields
          }
          product {
            handle
            title
          }
        }
      }
    }
  }
}
`

const queryProductByHandle = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) {
    id
    handle
    title
    descriptionHtml
    vendor
    tags
    seo {
      title
      description
    }
    featuredImage {
      ...ImageFields
    }
    images(first: 10) {
      nodes {
        ...ImageFields
      }
    }
    priceRange {
      minVariantPrice {
        ...MoneyFields
      }
      maxVariantPrice {
        ...MoneyFields
      }
    }
    variants(first: 50) {
      nodes {
        id
        title
        availableForSale
        quantityAvailable
        price {
          ...MoneyFields
        }
        compareAtPrice {
          ...MoneyFields
        }
        selectedOptions {
          name
          value
        }
      }
    }
  }
}
` + fragmentMoney + fragmentImage

const queryProducts = `
query Products($first: Int!, $after: String) {
  products(first: $first, after: $after, sortKey: BEST_SELLING) {
    nodes {
      ...ProductCard
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
` + fragmentProductCard + fragmentMoney + fragmentImage

const queryCollectionByHandle = `
query CollectionByHandle($handle: String!, $first: Int!, $after: String) {
  collection(handle: $handle) {
    id
    handle
    title
    description
    seo {
      title
      description
    }
    image {
      ...ImageFields
    }
    products(first: $first, after: $after) {
      nodes {
        ...ProductCard
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
` + fragmentProductCard + fragmentMoney + fragmentImage

const queryCollections = `
query Collections($first: Int!) {
  collections(first: $first) {
    nodes {
      id
      handle
      title
      description
      image {
        ...ImageFields
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
` + fragmentImage

const querySearch = `
query Search($query: String!, $first: Int!) {
  search(query: $query, first: $first, types: PRODUCT) {
    nodes {
      ... on Product {
        ...ProductCard
      }
    }
  }
}
` + fragmentProductCard + fragmentMoney + fragmentImage

const queryCart = `
query Cart($id: ID!) {
  cart(id: $id) {
    ...CartFields
  }
}
` + fragmentCart + fragmentMoney + fragmentImage

const mutationCartCreate = `
mutation CartCreate($lines: [CartLineInput!]) {
  cartCreate(input: {lines: $lines}) {
    cart {
      ...CartFields
    }
    userErrors {
      field
      message
      code
    }
  }
}
` + fragmentCart + fragmentMoney + fragmentImage

const mutationCartLinesAdd = `
mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart {
      ...CartFields
    }
    userErrors {
      field
      message
      code
    }
  }
}
` + fragmentCart + fragmentMoney + fragmentImage

const mutationCartLinesUpdate = `
mutation CartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart {
      ...CartFields
    }
    userErrors {
      field
      message
      code
    }
  }
}
` + fragmentCart + fragmentMoney + fragmentImage

const mutationCartLinesRemove = `
mutation CartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart {
      ...CartFields
    }
    userErrors {
      field
      message
      code
    }
  }
}
` + fragmentCart + fragmentMoney + fragmentImage
