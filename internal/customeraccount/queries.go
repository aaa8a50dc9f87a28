package customeraccount

const pageInfoFields = `pageInfo { hasNextPage hasPreviousPage startCursor endCursor }`

const addressFields = `id firstName lastName company address1 address2 city province country zip phone`

const customerQuery = `query Customer {
  customer {
    id
    firstName
    lastName
    displayName
    emailAddress { emailAddress }
  }
}`

const addressesQuery = `query CustomerAddresses($first: Int = 10, $after: String) {
  customer {
    addresses(first: $first, after: $after) {
      nodes { ` + addressFields + ` }
      ` + pageInfoFields + `
    }
  }
}`

const ordersQuery = `query CustomerOrders($first: Int = 10, $after: String) {
  customer {
    orders(first: $first, after: $after) {
      nodes {
        id
        name
        number
        processedAt
        fulfillmentStatus
        financialStatus
        totalPrice { amount currencyCode }
        lineItems(first: 10) { nodes { id title quantity } }
      }
      ` + pageInfoFields + `
    }
  }
}`

const subscriptionContractsQuery = `query CustomerSubscriptionContracts($first: Int = 10, $after: String) {
  customer {
    subscriptionContracts(first: $first, after: $after) {
      nodes { id status nextBillingDate }
      ` + pageInfoFields + `
    }
  }
}`

const paymentMethodsQuery = `query CustomerPaymentMethods($first: Int = 10, $after: String) {
  customer {
    paymentMethods(first: $first, after: $after) {
      nodes {
        id
        instrument {
          ... on CardInstrument { brand lastFourDigits expiryMonth expiryYear }
        }
      }
      ` + pageInfoFields + `
    }
  }
}`

const customerUpdateMutation = `mutation CustomerUpdate($customer: CustomerUpdateInput!) {
  customerUpdate(customer: $customer) {
    customer {
      id
      firstName
      lastName
      displayName
      emailAddress { emailAddress }
    }
    userErrors { field message code }
  }
}`

const addressCreateMutation = `mutation CustomerAddressCreate($address: CustomerAddressInput!) {
  customerAddressCreate(address: $address) {
    customerAddress { ` + addressFields + ` }
    userErrors { field message code }
  }
}`

const addressUpdateMutation = `mutation CustomerAddressUpdate($addressId: ID!, $address: CustomerAddressInput!) {
  customerAddressUpdate(addressId: $addressId, address: $address) {
    customerAddress { ` + addressFields + ` }
    userErrors { field message code }
  }
}`

const addressDeleteMutation = `mutation CustomerAddressDelete($addressId: ID!) {
  customerAddressDelete(addressId: $addressId) {
    deletedAddressId
    userErrors { field message code }
  }
}`
