// Package domain models OpenStreetMap (OSM) elements of the Berlin extract
// and the street-name audit applied to them before import.
//
// # Data Source
//
// Elements come from an OSM XML extract (format version 0.6), usually the
// bzip2-compressed Berlin extract. Each node, way and relation may carry
// key/value tags; the audit only looks at "addr:street".
//
// # Street-name audit
//
// A street name is classified against a hand-curated rule catalogue
// ([RuleSet]). The checks run in a fixed order and the first decisive one
// wins:
//
//	1. trim whitespace; empty names are rejected
//	2. verbatim exceptions            "Hanne Nüte"            → valid
//	3. known non-streets              "U-Bahnhof Alt-Tempelhof" → rejected
//	4. mechanical fixes
//	   a. lowercase first letter      "alma-Straße"  → "Alma-Straße"
//	   b. missing "r"                 "Musterstaße"  → "Musterstraße"
//	   c. transposed letters          "Uferpromedade" → "Uferpromenade"
//	   d. exact-match corrections     "Bernauer street" → "Bernauer Straße"
//	5. accepted name shapes (anchored regular expressions)
//	6. anything else fails with [UnclassifiedNameError]
//
// An unclassified name means the catalogue is missing a rule. It is never
// guessed; callers either drop the tag or skip the element.
//
// Input is normalised to Unicode NFC before classification so that
// decomposed umlauts ("a" + U+0308) match the precomposed character classes
// of the patterns.
//
// # Documents
//
// Audited elements are converted to [Document]s keyed by {type, id}, the
// shape stored in the "osm_berlin" collection:
//
//	node      loc: {type: "Point", coordinates: [lon, lat]}
//	way       nodes: [node ids]
//	relation  members: [{type, ref, role}]
//
// tag_keys and tag_values duplicate the tags for the text index.
package domain
