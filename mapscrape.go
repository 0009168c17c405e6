// Package mapscrape extracts structured business listings from a map-search
// results page and the per-listing detail pages it links to.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, yaml/).
package mapscrape
