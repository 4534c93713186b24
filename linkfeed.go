// Package linkfeed turns HTML listing pages into syndication feeds and a
// static index page. Each source is described declaratively: a listing URL
// plus a set of filter rules that decide which anchors on the page are
// content entries.
//
// This package contains domain types, interfaces and the pure link
// extraction core, following Ben Johnson's Standard Package Layout.
// Implementations live in subdirectories named after their primary
// dependency (e.g., goquery/, etree/, sqlite/).
package linkfeed
