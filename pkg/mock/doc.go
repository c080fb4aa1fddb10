// Package mock holds the routes, route variants and collections served by
// mocks-server.
//
// A route is a url and a set of methods answered by one of its variants. A
// variant has a type naming the VariantHandler that builds its http.Handler
// from the variant options. A collection picks one variant per route and may
// extend another collection with "from", overriding the parent variants of
// the same routes.
//
// Mock keeps the selected collection, the global delay and the custom route
// variants applied on top of the collection, and serves requests with the
// resulting active variants.
package mock
