package sanity

const imageProjection = `{
  asset->{ _id, url },
  alt,
  hotspot,
  crop
}`

const productStoreProjection = `store {
  id,
  gid,
  slug,
  title,
  handle,
  descriptionHtml,
  status,
  tags,
  vendor,
  productType,
  createdAt,
  updatedAt,
  publishedAt,
  availableForSale,
  totalInventory,
  trackQuantity,
  inventoryPolicy,
  price,
  compareAtPrice,
  isDeleted,
  previewImageUrl
}`

const modulesProjection = `modules[]{
  _key,
  _type,
  _type == "accordion" => {
    ...,
    title,
    groups[]{ _key, title, content },
    items[]{ _key, title, content }
  },
  _type == "callout" => { ..., text, tone },
  _type == "grid" => { ..., title, items },
  _type == "images" => {
    ...,
    images[]` + imageProjection + `,
    imageFeatures[]{ _key, _type, image ` + imageProjection + ` },
    caption,
    fullWidth,
    verticalAlign
  },
  _type == "imageWithProductHotspots" => {
    ...,
    image` + imageProjection + `,
    hotspots
  },
  _type == "instagram" => { ..., url },
  _type == "products" => {
    ...,
    title,
    layout,
    products[] {
      productWithVariant {
        product-> { _id, _type, ` + productStoreProjection + ` },
        variant-> {
          _id,
          store { title, price, compareAtPrice, sku, previewImageUrl, isDeleted }
        }
      }
    }
  }
}`

const seoProjection = `seo {
  title,
  description,
  image ` + imageProjection + `
}`

const homeQuery = `*[_type == "home"][0] {
  _id,
  _type,
  _createdAt,
  _updatedAt,
  hero {
    _type,
    title,
    description,
    image[]` + imageProjection + `,
    cta { _type, title, url }
  },
  ` + modulesProjection + `,
  ` + seoProjection + `
}`

const pageQuery = `*[_type == "page" && store.slug.current == $slug][0] {
  _id,
  _type,
  _createdAt,
  _updatedAt,
  title,
  store { slug, title },
  ` + modulesProjection + `,
  ` + seoProjection + `
}`

const settingsQuery = `*[_type == "settings"][0] {
  _id,
  _type,
  menu {
    links[] {
      _key,
      _type,
      _type == "collectionGroup" => {
        ...,
        title,
        collectionLinks[] {
          _ref,
          _type,
          "store": @-> { _id, _type, ` + productStoreProjection + ` }
        },
        collectionProducts { _ref, _type }
      },
      _type == "linkInternal" => {
        ...,
        reference-> {
          _id,
          _type,
          _type == "home" => { title, "slug": "home" },
          _type == "page" => { title, slug },
          _type == "product" => { title, store { title, handle } },
          _type == "collection" => { title, store { title, handle } }
        }
      },
      _type == "linkExternal" => { ..., url, newWindow }
    }
  },
  ` + seoProjection + `,
  footer {
    newsletter { display, heading, text },
    links[] { _key, title, url }
  },
  notFoundPage {
    title,
    body,
    collection-> { _id, _type, ` + productStoreProjection + ` },
    colorTheme
  }
}`

// Listing queries are ordered newest first and sliced to $limit.
const productsQuery = `*[_type == "product"] | order(_createdAt desc) [0...$limit] {
  _id,
  _type,
  _createdAt,
  _updatedAt,
  ` + productStoreProjection + `
}`

const collectionsQuery = `*[_type == "collection"] | order(_createdAt desc) [0...$limit] {
  _id,
  _type,
  _createdAt,
  _updatedAt,
  title,
  store {
    id,
    gid,
    slug,
    title,
    handle,
    description,
    descriptionHtml,
    updatedAt,
    image ` + imageProjection + `
  }
}`
