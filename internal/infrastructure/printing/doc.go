// Package printing turns settlement reports into printable documents.
//
// SettlementTemplate lays a report view out as HTML, ImageNormalizer bounds the
// receipt images embedded in it and ChromedpRenderer prints the result to PDF
// through a headless browser. The same renderer rasterises the first page of
// PDF receipts so they can be embedded as images.
package printing
