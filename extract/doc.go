// Package extract fetches and extracts text content from items.
//
// Article pages go through an HTML-to-markdown conversion first, with a
// plain-text extraction fallback for pages the converter cannot handle.
// Video items are resolved through a transcript API instead. Every result
// records which method produced it so downstream consumers can weigh
// content quality.
package extract
