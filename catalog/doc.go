// Package catalog loads the relay list that feeds the rotation engine.
//
// The list is fetched over HTTP as a JSON array, decoded tolerantly so
// that records with missing or mistyped fields are kept with those
// fields marked absent, and cached in a local sqlite database. A fresh
// cache avoids the network entirely; a stale cache is used when the
// fetch fails.
package catalog
